package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mkendall/tandem/internal/database"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    int
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts++
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		S3: S3Config{
			Bucket:    "tandem-snapshots",
			Region:    "auto",
			AccessKey: "test",
			SecretKey: "test",
		},
		DBPath:     filepath.Join(t.TempDir(), "tandem.db"),
		Passphrase: "correct horse",
	}
}

func TestRunNowUploadsDecryptableSnapshot(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(cfg, db, slog.New(slog.DiscardHandler))
	client := &fakeS3{}
	m.client = client

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if !strings.HasPrefix(key, "snapshots/tandem-") {
		t.Errorf("key = %q", key)
	}
	if client.puts != 1 {
		t.Fatalf("puts = %d, want 1", client.puts)
	}

	sealed := client.objects[key]
	plaintext, err := Decrypt(sealed, cfg.Passphrase)
	if err != nil {
		t.Fatalf("decrypt uploaded snapshot: %v", err)
	}
	// SQLite files begin with a fixed header string
	if !bytes.HasPrefix(plaintext, []byte("SQLite format 3")) {
		t.Error("decrypted snapshot is not a SQLite database")
	}

	st := m.Status()
	if st.State != StateIdle || st.LastSnapshot == nil {
		t.Errorf("status = %+v, want idle with last snapshot set", st)
	}
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.S3.AccessKey = ""

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(cfg, db, slog.New(slog.DiscardHandler))
	if m.Enabled() {
		t.Error("manager enabled without credentials")
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("expected error from RunNow while disabled")
	}
	if st := m.Status(); st.State != StateDisabled {
		t.Errorf("state = %q, want disabled", st.State)
	}

	// Start is a no-op while disabled; Stop must not hang.
	m.Start(context.Background())
	m.Stop()
}

func TestManagerDisabledWithoutPassphrase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Passphrase = ""

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if m := NewManager(cfg, db, slog.New(slog.DiscardHandler)); m.Enabled() {
		t.Error("manager enabled without a passphrase")
	}
}
