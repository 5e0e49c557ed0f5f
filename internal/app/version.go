package app

// AppName is the display/config name of the application.
const AppName = "vibetunnel"

// AppVersion is stamped by the release build; the default marks dev
// builds.
var AppVersion = "dev"
