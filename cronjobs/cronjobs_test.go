package cronjobs

import (
	"context"
	"errors"
	"testing"

	"ciudamos/db"
	"ciudamos/store"
)

type fixedSnapshot struct {
	raw []byte
	err error
}

func (f fixedSnapshot) Snapshot() ([]byte, error) { return f.raw, f.err }

type failingKV struct{ *db.Memory }

func (failingKV) Set(context.Context, string, []byte) error { return errors.New("unavailable") }

func TestMirror(t *testing.T) {
	ctx := context.Background()
	dst := db.NewMemory()
	envelope := []byte(`{"version":1,"reports":[]}`)

	if err := Mirror(ctx, fixedSnapshot{raw: envelope}, dst); err != nil {
		t.Fatal(err)
	}
	got, err := dst.Get(ctx, store.Key)
	if err != nil || string(got) != string(envelope) {
		t.Fatalf("mirrored %q, %v", got, err)
	}

	if err := Mirror(ctx, fixedSnapshot{err: errors.New("boom")}, dst); err == nil {
		t.Fatal("expected snapshot error")
	}
	if err := Mirror(ctx, fixedSnapshot{raw: envelope}, failingKV{db.NewMemory()}); err == nil {
		t.Fatal("expected write error")
	}
}

func TestInitCronJobs(t *testing.T) {
	c, err := InitCronJobs("*/10 * * * *", fixedSnapshot{}, db.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n != 1 {
		t.Fatalf("%d entries scheduled", n)
	}

	if _, err := InitCronJobs("every tuesday", fixedSnapshot{}, db.NewMemory()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
