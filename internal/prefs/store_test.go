package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), AppPreferencesFile)
	s := NewStore(path, DefaultAppPreferences())

	v := s.Load()
	v.UseDirectKeyboard = true
	if err := s.Save(v); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same file sees the saved value.
	s2 := NewStore(path, DefaultAppPreferences())
	got := s2.Load()
	if !got.UseDirectKeyboard {
		t.Error("UseDirectKeyboard not persisted")
	}
	if got.ShowLogLink {
		t.Error("ShowLogLink flipped, should keep its default")
	}
}

func TestStoreMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	s := NewStore(path, DefaultNotificationPreferences())

	got := s.Load()
	want := DefaultNotificationPreferences()
	if got != want {
		t.Errorf("Load() = %+v, want defaults %+v", got, want)
	}
}

func TestStoreCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), AppPreferencesFile)
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, DefaultAppPreferences())
	got := s.Load()
	if got != DefaultAppPreferences() {
		t.Errorf("Load() on corrupt file = %+v, want defaults", got)
	}
}

func TestStorePartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), NotificationPreferencesFile)
	// Only one key present; everything else must keep its default.
	if err := os.WriteFile(path, []byte(`{"enabled": true}`), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, DefaultNotificationPreferences())
	got := s.Load()
	if !got.Enabled {
		t.Error("enabled not read from file")
	}
	def := DefaultNotificationPreferences()
	if got.SessionExit != def.SessionExit || got.SoundEnabled != def.SoundEnabled {
		t.Error("absent keys did not keep their defaults")
	}
}

func TestStoreSaveBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), AppPreferencesFile)
	s := NewStore(path, DefaultAppPreferences())

	ch1, cancel1 := s.Subscribe()
	ch2, cancel2 := s.Subscribe()
	defer cancel1()
	defer cancel2()

	v := DefaultAppPreferences()
	v.ShowLogLink = true
	if err := s.Save(v); err != nil {
		t.Fatalf("save: %v", err)
	}

	for i, ch := range []<-chan AppPreferences{ch1, ch2} {
		select {
		case got := <-ch:
			if !got.ShowLogLink {
				t.Errorf("subscriber %d got %+v, want ShowLogLink=true", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the broadcast", i)
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	b := NewBus[int]()
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(1)
	if _, ok := <-ch; ok {
		t.Error("cancelled subscriber received a value")
	}
}

func TestReloadBroadcastsFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), AppPreferencesFile)
	s := NewStore(path, DefaultAppPreferences())

	ch, cancel := s.Subscribe()
	defer cancel()

	// Simulate an external writer.
	if err := os.WriteFile(path, []byte(`{"useDirectKeyboard": true}`), 0600); err != nil {
		t.Fatal(err)
	}
	s.Reload()

	select {
	case got := <-ch:
		if !got.UseDirectKeyboard {
			t.Errorf("reload broadcast %+v, want UseDirectKeyboard=true", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast after Reload")
	}
}

func TestFlagsOneShot(t *testing.T) {
	f := NewFlags(filepath.Join(t.TempDir(), FlagsFile))

	if f.Get(FlagBannerDismissed) {
		t.Error("unset flag reads true")
	}
	if err := f.Set(FlagBannerDismissed, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !f.Get(FlagBannerDismissed) {
		t.Error("flag not persisted")
	}
	// Other flags are untouched.
	if f.Get(FlagOnboardingComplete) {
		t.Error("unrelated flag flipped")
	}
}
