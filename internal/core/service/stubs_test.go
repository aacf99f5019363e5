package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// memDB is an in-memory stand-in for the document store shared by the stub
// repositories below.
type memDB struct {
	mu         sync.Mutex
	users      map[int64]*domain.User
	languages  map[int64]*domain.Language
	sentences  map[int64]*domain.Sentence
	recordings map[int64]*domain.Recording
	seq        map[string]int64

	userSeqErr   error
	recCreateErr error
	recListErr   error
}

func newMemDB() *memDB {
	return &memDB{
		users:      make(map[int64]*domain.User),
		languages:  make(map[int64]*domain.Language),
		sentences:  make(map[int64]*domain.Sentence),
		recordings: make(map[int64]*domain.Recording),
		seq:        make(map[string]int64),
	}
}

func (db *memDB) next(name string) int64 {
	db.seq[name]++
	return db.seq[name]
}

func (db *memDB) repos() Repositories {
	return Repositories{
		Users:      &memUsers{db},
		Languages:  &memLanguages{db},
		Sentences:  &memSentences{db},
		Recordings: &memRecordings{db},
		UnitOfWork: stubUoW{},
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

type memUsers struct{ db *memDB }

func (r *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
		if existing.UserID == u.UserID {
			return nil, domain.ErrUserIDTaken
		}
	}
	c := cloneUser(u)
	c.ID = r.db.next("users")
	r.db.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]*domain.User)
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.db.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUsers) SetApproved(_ context.Context, id int64, approved bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsApproved = approved
	return nil
}

func (r *memUsers) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.db.users, id)
	return nil
}

func (r *memUsers) ListContributors(_ context.Context) ([]*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.User
	for _, u := range r.db.users {
		if !u.IsAdmin {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memUsers) CountContributors(_ context.Context, approved bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, u := range r.db.users {
		if !u.IsAdmin && u.IsApproved == approved {
			n++
		}
	}
	return n, nil
}

func (r *memUsers) NextUserSeq(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.userSeqErr != nil {
		return 0, r.db.userSeqErr
	}
	return r.db.next("user_id"), nil
}

func (r *memUsers) LastCreated(_ context.Context) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var last *domain.User
	for _, u := range r.db.users {
		if last == nil || u.ID > last.ID {
			last = u
		}
	}
	if last == nil {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(last), nil
}

func (r *memUsers) MaxID(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var max int64
	for id := range r.db.users {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (r *memUsers) MissingUserID(_ context.Context) ([]*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.User
	for _, u := range r.db.users {
		if u.UserID == "" {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

type memLanguages struct{ db *memDB }

func (r *memLanguages) Create(_ context.Context, l *domain.Language) (*domain.Language, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.languages {
		if existing.Name == l.Name || existing.Code == l.Code {
			return nil, domain.ErrLanguageExists
		}
	}
	c := *l
	c.ID = r.db.next("languages")
	r.db.languages[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memLanguages) FindByID(_ context.Context, id int64) (*domain.Language, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.languages[id]
	if !ok {
		return nil, domain.ErrLanguageNotFound
	}
	c := *l
	return &c, nil
}

func (r *memLanguages) FindByCode(_ context.Context, code string) (*domain.Language, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.languages {
		if l.Code == code {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrLanguageNotFound
}

func (r *memLanguages) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.Language, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]*domain.Language)
	for _, id := range ids {
		if l, ok := r.db.languages[id]; ok {
			c := *l
			out[id] = &c
		}
	}
	return out, nil
}

func (r *memLanguages) List(_ context.Context) ([]*domain.Language, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*domain.Language
	for _, l := range r.db.languages {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memLanguages) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.languages[id]; !ok {
		return domain.ErrLanguageNotFound
	}
	delete(r.db.languages, id)
	return nil
}

type memSentences struct{ db *memDB }

func (r *memSentences) Create(_ context.Context, s *domain.Sentence) (*domain.Sentence, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.sentences {
		if existing.LanguageID == s.LanguageID && existing.Text == s.Text {
			return nil, domain.ErrSentenceExists
		}
	}
	c := *s
	c.ID = r.db.next("sentences")
	r.db.sentences[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memSentences) FindByID(_ context.Context, id int64) (*domain.Sentence, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sentences[id]
	if !ok {
		return nil, domain.ErrSentenceNotFound
	}
	c := *s
	return &c, nil
}

func (r *memSentences) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.Sentence, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]*domain.Sentence)
	for _, id := range ids {
		if s, ok := r.db.sentences[id]; ok {
			c := *s
			out[id] = &c
		}
	}
	return out, nil
}

func (r *memSentences) TextExists(_ context.Context, languageID int64, text string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.sentences {
		if s.LanguageID == languageID && s.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSentences) IDs(_ context.Context, languageID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []int64
	for id, s := range r.db.sentences {
		if languageID == 0 || s.LanguageID == languageID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *memSentences) SearchIDs(_ context.Context, query string) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q := strings.ToLower(query)
	var out []int64
	for id, s := range r.db.sentences {
		if strings.Contains(strings.ToLower(s.Text), q) || strings.Contains(strings.ToLower(s.Translation), q) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memSentences) CountByLanguage(_ context.Context) (map[int64]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]int64)
	for _, s := range r.db.sentences {
		out[s.LanguageID]++
	}
	return out, nil
}

func (r *memSentences) DeleteByLanguage(_ context.Context, languageID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, s := range r.db.sentences {
		if s.LanguageID == languageID {
			delete(r.db.sentences, id)
		}
	}
	return nil
}

type memRecordings struct{ db *memDB }

func (r *memRecordings) Create(_ context.Context, rec *domain.Recording) (*domain.Recording, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.recCreateErr != nil {
		return nil, r.db.recCreateErr
	}
	for _, existing := range r.db.recordings {
		if existing.UserID == rec.UserID && existing.SentenceID == rec.SentenceID {
			return nil, domain.ErrAlreadyRecorded
		}
	}
	c := *rec
	c.ID = r.db.next("recordings")
	r.db.recordings[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memRecordings) FindByID(_ context.Context, id int64) (*domain.Recording, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.recordings[id]
	if !ok {
		return nil, domain.ErrRecordingNotFound
	}
	c := *rec
	return &c, nil
}

func (r *memRecordings) FindByAudioPath(_ context.Context, path string) (*domain.Recording, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rec := range r.db.recordings {
		if rec.AudioPath == path {
			c := *rec
			return &c, nil
		}
	}
	return nil, domain.ErrRecordingNotFound
}

func (r *memRecordings) Exists(_ context.Context, userID, sentenceID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rec := range r.db.recordings {
		if rec.UserID == userID && rec.SentenceID == sentenceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRecordings) SentenceIDsByUser(_ context.Context, userID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []int64
	for _, rec := range r.db.recordings {
		if rec.UserID == userID {
			out = append(out, rec.SentenceID)
		}
	}
	return out, nil
}

func (r *memRecordings) match(f ports.RecordingFilter) []*domain.Recording {
	allowed := make(map[int64]struct{}, len(f.SentenceIDs))
	for _, id := range f.SentenceIDs {
		allowed[id] = struct{}{}
	}
	var out []*domain.Recording
	for _, rec := range r.db.recordings {
		if f.UserID != 0 && rec.UserID != f.UserID {
			continue
		}
		if f.RestrictSentences {
			if _, ok := allowed[rec.SentenceID]; !ok {
				continue
			}
		}
		if !f.From.IsZero() && rec.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !rec.CreatedAt.Before(f.To) {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memRecordings) List(_ context.Context, f ports.RecordingFilter) ([]*domain.Recording, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.recListErr != nil {
		return nil, r.db.recListErr
	}
	out := r.match(f)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memRecordings) Totals(_ context.Context, f ports.RecordingFilter) (ports.RecordingTotals, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var t ports.RecordingTotals
	for _, rec := range r.match(f) {
		t.Count++
		t.Duration += rec.Duration
	}
	return t, nil
}

func (r *memRecordings) AudioPaths(_ context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []string
	for _, rec := range r.db.recordings {
		out = append(out, rec.AudioPath)
	}
	return out, nil
}

func (r *memRecordings) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.recordings[id]; !ok {
		return domain.ErrRecordingNotFound
	}
	delete(r.db.recordings, id)
	return nil
}

func (r *memRecordings) DeleteByUser(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, rec := range r.db.recordings {
		if rec.UserID == userID {
			delete(r.db.recordings, id)
		}
	}
	return nil
}

func (r *memRecordings) DeleteBySentences(_ context.Context, ids []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for id, rec := range r.db.recordings {
		if _, ok := set[rec.SentenceID]; ok {
			delete(r.db.recordings, id)
		}
	}
	return nil
}

type stubUoW struct{}

func (stubUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memStore is an in-memory AudioStore.
type memStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	modTimes  map[string]time.Time
	removeErr error
	removed   []string
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte), modTimes: make(map[string]time.Time)}
}

func (s *memStore) put(name, data string, mod time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = []byte(data)
	s.modTimes[name] = mod
}

func (s *memStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

func (s *memStore) Save(_ context.Context, name string, r io.Reader, limit int64) (int64, error) {
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return 0, domain.ErrUnsafePath
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return 0, err
	}
	if int64(len(data)) > limit {
		return 0, domain.ErrPayloadTooLarge
	}
	s.put(name, string(data), time.Now())
	return int64(len(data)), nil
}

func (s *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, domain.ErrAudioNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.files, name)
	delete(s.modTimes, name)
	return nil
}

func (s *memStore) Exists(_ context.Context, name string) (bool, error) {
	return s.has(name), nil
}

func (s *memStore) List(_ context.Context) ([]ports.StoredAudio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.StoredAudio
	for name, mod := range s.modTimes {
		out = append(out, ports.StoredAudio{Name: name, ModTime: mod})
	}
	return out, nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]int64
	n        int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]int64)}
}

func (s *memSessions) Create(_ context.Context, userID int64, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	id := strings.Repeat("s", s.n)
	s.sessions[id] = userID
	return id, nil
}

func (s *memSessions) Lookup(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[id]
	if !ok {
		return 0, domain.ErrUnauthenticated
	}
	return uid, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type stubLock struct {
	held       map[[2]int64]bool
	acquireErr error
	released   int
}

func newStubLock() *stubLock {
	return &stubLock{held: make(map[[2]int64]bool)}
}

func (l *stubLock) Acquire(_ context.Context, userID, sentenceID int64, _ time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	key := [2]int64{userID, sentenceID}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *stubLock) Release(_ context.Context, userID, sentenceID int64) error {
	delete(l.held, [2]int64{userID, sentenceID})
	l.released++
	return nil
}

type stubSeeds struct {
	files map[string]string
}

func (s *stubSeeds) Ensure(_ context.Context, names ...string) error {
	for _, n := range names {
		if _, ok := s.files[n]; !ok {
			s.files[n] = ""
		}
	}
	return nil
}

func (s *stubSeeds) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, domain.ErrSeedFileNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

// fixture seeding helpers

func (db *memDB) addUser(email string, admin, approved bool) *domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &domain.User{
		ID:         db.next("users"),
		Email:      email,
		FirstName:  "Jean",
		LastName:   strings.Split(email, "@")[0],
		Age:        30,
		Sex:        domain.SexMale,
		Province:   "Kinshasa",
		City:       "Gombe",
		IsAdmin:    admin,
		IsApproved: approved,
		CreatedAt:  time.Now().UTC(),
	}
	u.UserID = domain.FormatUserID(u.ID)
	db.users[u.ID] = u
	return cloneUser(u)
}

func (db *memDB) addLanguage(name, code string) *domain.Language {
	db.mu.Lock()
	defer db.mu.Unlock()
	l := &domain.Language{ID: db.next("languages"), Name: name, Code: code}
	db.languages[l.ID] = l
	c := *l
	return &c
}

func (db *memDB) addSentence(languageID int64, text, translation string) *domain.Sentence {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := &domain.Sentence{ID: db.next("sentences"), LanguageID: languageID, Text: text, Translation: translation}
	db.sentences[s.ID] = s
	c := *s
	return &c
}

func (db *memDB) addRecording(userID, sentenceID int64, path string, duration float64, at time.Time) *domain.Recording {
	db.mu.Lock()
	defer db.mu.Unlock()
	r := &domain.Recording{
		ID:         db.next("recordings"),
		UserID:     userID,
		SentenceID: sentenceID,
		AudioPath:  path,
		Duration:   duration,
		CreatedAt:  at,
	}
	db.recordings[r.ID] = r
	c := *r
	return &c
}
