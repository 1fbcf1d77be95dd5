package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates the log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer rw.Close()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("creates nested directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer rw.Close()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("appends to an existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logPath, []byte("initial content\n"), 0644); err != nil {
			t.Fatal(err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if _, err := rw.Write([]byte("appended content\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		rw.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "initial content") {
			t.Error("initial content was lost")
		}
		if !strings.Contains(string(content), "appended content") {
			t.Error("appended content was not written")
		}
	})
}

func TestRotatingWriterTracksSize(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	if rw.CurrentSize() != 0 {
		t.Errorf("expected initial size 0, got %d", rw.CurrentSize())
	}

	data := []byte("test message\n")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected to write %d bytes, wrote %d", len(data), n)
	}
	if rw.CurrentSize() != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), rw.CurrentSize())
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	t.Run("rotates when size exceeds max", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		// Small limit so a handful of writes rotates.
		rw.maxSizeB = 100

		for i := 0; i < 5; i++ {
			rw.Write([]byte("this is a test message that will trigger rotation\n"))
		}
		rw.Close()

		if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
			t.Error("backup file .1 was not created")
		}
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Error("current log file does not exist after rotation")
		}
	})

	t.Run("keeps only maxBackups files", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: 2})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.maxSizeB = 50

		for i := 0; i < 10; i++ {
			rw.Write([]byte("this message will trigger rotation\n"))
		}
		rw.Close()

		if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
			t.Error("backup file .1 should exist")
		}
		if _, err := os.Stat(logPath + ".2"); os.IsNotExist(err) {
			t.Error("backup file .2 should exist")
		}
		if _, err := os.Stat(logPath + ".3"); err == nil {
			t.Error("backup file .3 should not exist")
		}
	})

	t.Run("no rotation when size limit is zero", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 0, MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}

		for i := 0; i < 100; i++ {
			rw.Write([]byte("test message that would trigger rotation if enabled\n"))
		}
		rw.Close()

		if _, err := os.Stat(logPath + ".1"); err == nil {
			t.Error("backup file should not exist when rotation is disabled")
		}
	})
}

func TestRotatingWriterClose(t *testing.T) {
	t.Run("close syncs and closes the file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.Write([]byte("test message\n"))

		if err := rw.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		// Second close should be a no-op
		if err := rw.Close(); err != nil {
			t.Errorf("second Close failed: %v", err)
		}
	})

	t.Run("write after close fails", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.Close()

		if _, err := rw.Write([]byte("test message\n")); err == nil {
			t.Error("expected write after close to fail")
		}
	})
}

func TestRotatingWriterSync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	rw.Write([]byte("test message\n"))
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Error("content was not synced to disk")
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	config := DefaultRotationConfig()
	if config.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB=10, got %d", config.MaxSizeMB)
	}
	if config.MaxBackups != 3 {
		t.Errorf("expected MaxBackups=3, got %d", config.MaxBackups)
	}
}
