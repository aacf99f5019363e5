package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

func newRecordingFixture() (*memDB, *memStore, *stubLock, *RecordingService) {
	db := newMemDB()
	store := newMemStore()
	lock := newStubLock()
	svc := NewRecordingService(db.repos(), store, lock, IngestConfig{MaxUploadBytes: 1024}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return db, store, lock, svc
}

func TestRecordingService_NextSentence_SkipsRecorded(t *testing.T) {
	db, _, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s1 := db.addSentence(lang.ID, "Amahoro", "Paix")
	s2 := db.addSentence(lang.ID, "Urakoze", "Merci")
	db.addRecording(u.ID, s1.ID, "a.wav", 1, time.Now())

	for i := 0; i < 20; i++ {
		got, err := svc.NextSentence(context.Background(), u.ID, 0)
		if err != nil {
			t.Fatalf("NextSentence: %v", err)
		}
		if got == nil || got.ID != s2.ID {
			t.Fatalf("expected sentence %d, got %+v", s2.ID, got)
		}
		if got.LanguageName != "Kirundi" {
			t.Fatalf("expected language name, got %q", got.LanguageName)
		}
	}

	db.addRecording(u.ID, s2.ID, "b.wav", 1, time.Now())
	got, err := svc.NextSentence(context.Background(), u.ID, 0)
	if err != nil || got != nil {
		t.Fatalf("expected none available, got %+v, %v", got, err)
	}
}

func TestRecordingService_NextSentence_LanguageFilter(t *testing.T) {
	db, _, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	rund := db.addLanguage("Kirundi", "rund")
	lin := db.addLanguage("Lingala", "lin")
	db.addSentence(rund.ID, "Amahoro", "Paix")
	s := db.addSentence(lin.ID, "Mbote", "Bonjour")

	got, err := svc.NextSentence(context.Background(), u.ID, lin.ID)
	if err != nil {
		t.Fatalf("NextSentence: %v", err)
	}
	if got == nil || got.ID != s.ID {
		t.Fatalf("expected Lingala sentence, got %+v", got)
	}

	if _, err := svc.NextSentence(context.Background(), u.ID, 999); !errors.Is(err, domain.ErrLanguageNotFound) {
		t.Fatalf("expected ErrLanguageNotFound, got %v", err)
	}
}

func TestRecordingService_NextSentence_EmptyInventory(t *testing.T) {
	db, _, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)

	got, err := svc.NextSentence(context.Background(), u.ID, 0)
	if err != nil || got != nil {
		t.Fatalf("expected none available, got %+v, %v", got, err)
	}
}

var storedName = regexp.MustCompile(`^user(\d+)_sentence(\d+)_20240309_140507_[0-9a-f]{8}\.(\w+)$`)

func TestRecordingService_NextSentence_Uniform(t *testing.T) {
	db, _, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	recorded := db.addSentence(lang.ID, "Amahoro", "Paix")
	db.addRecording(u.ID, recorded.ID, "a.wav", 1, time.Now())

	const k = 5
	counts := make(map[int64]int, k)
	for i := 0; i < k; i++ {
		counts[db.addSentence(lang.ID, fmt.Sprintf("phrase %d", i), "").ID] = 0
	}

	const draws = 5000
	for i := 0; i < draws; i++ {
		got, err := svc.NextSentence(context.Background(), u.ID, 0)
		if err != nil {
			t.Fatalf("NextSentence: %v", err)
		}
		if _, ok := counts[got.ID]; !ok {
			t.Fatalf("drew ineligible sentence %d", got.ID)
		}
		counts[got.ID]++
	}

	// Each bucket expects 1000 draws with a standard deviation near 28.
	want := draws / k
	for id, n := range counts {
		if n < want*8/10 || n > want*12/10 {
			t.Fatalf("sentence %d drawn %d times, expected about %d (all: %v)", id, n, want, counts)
		}
	}
}

func TestRecordingService_Submit_Success(t *testing.T) {
	db, store, lock, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")

	res, err := svc.Submit(context.Background(), ports.SubmitInput{
		UserID:      u.ID,
		SentenceID:  s.ID,
		Filename:    "blob",
		ContentType: "audio/webm;codecs=opus",
		Audio:       strings.NewReader("RIFFdata"),
		Duration:    3.25,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Duration != 3.25 || res.Extension != "webm" || res.Size != 8 {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec := db.recordings[res.ID]
	if rec == nil {
		t.Fatalf("recording row not stored")
	}
	m := storedName.FindStringSubmatch(rec.AudioPath)
	if m == nil || m[3] != "webm" {
		t.Fatalf("unexpected stored name %q", rec.AudioPath)
	}
	if !store.has(rec.AudioPath) {
		t.Fatalf("audio blob not written")
	}
	if lock.released != 1 {
		t.Fatalf("expected lock to be released once, got %d", lock.released)
	}

	_, err = svc.Submit(context.Background(), ports.SubmitInput{
		UserID: u.ID, SentenceID: s.ID, Filename: "again.wav", Audio: strings.NewReader("x"),
	})
	if !errors.Is(err, domain.ErrAlreadyRecorded) {
		t.Fatalf("expected ErrAlreadyRecorded, got %v", err)
	}
	if len(db.recordings) != 1 {
		t.Fatalf("expected exactly one recording, got %d", len(db.recordings))
	}
}

func TestRecordingService_Submit_Rejections(t *testing.T) {
	db, store, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")

	if _, err := svc.Submit(context.Background(), ports.SubmitInput{UserID: u.ID, SentenceID: s.ID}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error without audio, got %v", err)
	}

	_, err := svc.Submit(context.Background(), ports.SubmitInput{UserID: u.ID, SentenceID: 404, Audio: strings.NewReader("x")})
	if !errors.Is(err, domain.ErrSentenceNotFound) {
		t.Fatalf("expected ErrSentenceNotFound, got %v", err)
	}

	_, err = svc.Submit(context.Background(), ports.SubmitInput{
		UserID: u.ID, SentenceID: s.ID, Audio: strings.NewReader(strings.Repeat("a", 2048)),
	})
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if len(db.recordings) != 0 || len(store.files) != 0 {
		t.Fatalf("rejected upload left state behind")
	}
}

func TestRecordingService_Submit_ConcurrentLockHeld(t *testing.T) {
	db, _, lock, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")
	lock.held[[2]int64{u.ID, s.ID}] = true

	_, err := svc.Submit(context.Background(), ports.SubmitInput{UserID: u.ID, SentenceID: s.ID, Audio: strings.NewReader("x")})
	if !errors.Is(err, domain.ErrAlreadyRecorded) {
		t.Fatalf("expected ErrAlreadyRecorded while lock is held, got %v", err)
	}
}

func TestRecordingService_Submit_LockUnavailable(t *testing.T) {
	db, _, lock, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")
	lock.acquireErr = errors.New("redis down")

	if _, err := svc.Submit(context.Background(), ports.SubmitInput{UserID: u.ID, SentenceID: s.ID, Audio: strings.NewReader("x")}); err != nil {
		t.Fatalf("expected submission without lock to succeed, got %v", err)
	}
}

func TestRecordingService_Submit_InsertFailureRemovesBlob(t *testing.T) {
	db, store, _, svc := newRecordingFixture()
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")
	db.recCreateErr = errors.New("write conflict")

	_, err := svc.Submit(context.Background(), ports.SubmitInput{UserID: u.ID, SentenceID: s.ID, Filename: "a.mp3", Audio: strings.NewReader("x")})
	if err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	if len(store.files) != 0 {
		t.Fatalf("expected orphaned blob to be removed, still have %d", len(store.files))
	}
	if len(store.removed) != 1 || !strings.HasSuffix(store.removed[0], ".mp3") {
		t.Fatalf("unexpected removals: %v", store.removed)
	}
}

func TestRecordingService_Submit_ConcurrentDuplicates(t *testing.T) {
	db := newMemDB()
	store := newMemStore()
	svc := NewRecordingService(db.repos(), store, nil, IngestConfig{MaxUploadBytes: 1024}, zerolog.Nop())
	u := db.addUser("u@example.com", false, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")

	const n = 16
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		errs     = make([]error, n)
		accepted = make([]*ports.SubmitResult, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			accepted[i], errs[i] = svc.Submit(context.Background(), ports.SubmitInput{
				UserID: u.ID, SentenceID: s.ID, Filename: "take.wav", Audio: strings.NewReader("RIFF"),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	wins, winner := 0, -1
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winner = i
		case !errors.Is(err, domain.ErrAlreadyRecorded):
			t.Fatalf("submission %d: expected ErrAlreadyRecorded, got %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", wins)
	}
	if len(db.recordings) != 1 {
		t.Fatalf("expected one recording row, got %d", len(db.recordings))
	}
	var row *domain.Recording
	for _, r := range db.recordings {
		row = r
	}
	if accepted[winner].ID != row.ID {
		t.Fatalf("accepted id %d does not match stored row %d", accepted[winner].ID, row.ID)
	}
	if len(store.files) != 1 || !store.has(row.AudioPath) {
		t.Fatalf("expected only the accepted blob %q to remain, have %d files", row.AudioPath, len(store.files))
	}
}

func TestRecordingService_OpenAudio_Authorization(t *testing.T) {
	db, store, _, svc := newRecordingFixture()
	owner := db.addUser("owner@example.com", false, true)
	other := db.addUser("other@example.com", false, true)
	admin := db.addUser("admin@example.com", true, true)
	lang := db.addLanguage("Kirundi", "rund")
	s := db.addSentence(lang.ID, "Amahoro", "Paix")
	rec := db.addRecording(owner.ID, s.ID, "user1_sentence1.ogg", 2, time.Now())
	store.put(rec.AudioPath, "OggS", time.Now())

	f, err := svc.OpenAudio(context.Background(), domain.PrincipalOf(owner), rec.ID)
	if err != nil {
		t.Fatalf("owner OpenAudio: %v", err)
	}
	body, _ := io.ReadAll(f.Body)
	f.Body.Close()
	if string(body) != "OggS" || f.ContentType != "audio/ogg" {
		t.Fatalf("unexpected audio: %q %s", body, f.ContentType)
	}

	if _, err := svc.OpenAudio(context.Background(), domain.PrincipalOf(other), rec.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}
	if _, err := svc.OpenAudioByName(context.Background(), domain.PrincipalOf(admin), rec.AudioPath); err != nil {
		t.Fatalf("admin OpenAudioByName: %v", err)
	}
	if _, err := svc.OpenAudio(context.Background(), domain.PrincipalOf(owner), 999); !errors.Is(err, domain.ErrRecordingNotFound) {
		t.Fatalf("expected ErrRecordingNotFound, got %v", err)
	}

	store.Remove(context.Background(), rec.AudioPath)
	if _, err := svc.OpenAudio(context.Background(), domain.PrincipalOf(owner), rec.ID); !errors.Is(err, domain.ErrAudioNotFound) {
		t.Fatalf("expected ErrAudioNotFound, got %v", err)
	}
}
