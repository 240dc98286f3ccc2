package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/document"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
)

type memStore struct {
	mu        sync.Mutex
	seq       int
	folders   map[string]string
	files     map[string][]byte
	names     map[string]string
	public    map[string]bool
	deleted   []string
	uploadErr error
	shareErr  error
}

func newMemStore() *memStore {
	return &memStore{
		folders: map[string]string{},
		files:   map[string][]byte{},
		names:   map[string]string{},
		public:  map[string]bool{},
	}
}

func (s *memStore) EnsureFolder(_ context.Context, name, parentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := parentID + "/" + name
	if id, ok := s.folders[key]; ok {
		return id, nil
	}
	s.seq++
	id := fmt.Sprintf("folder-%d", s.seq)
	s.folders[key] = id
	return id, nil
}

func (s *memStore) Upload(_ context.Context, folderID, name, _ string, r io.Reader) (*cloudstore.StoredFile, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("file-%d", s.seq)
	s.files[id] = data
	s.names[id] = folderID + "/" + name
	return &cloudstore.StoredFile{
		ID:          id,
		Name:        name,
		ViewURL:     "https://files.example/" + id + "/view",
		DownloadURL: "https://files.example/" + id,
	}, nil
}

func (s *memStore) MakePublic(_ context.Context, fileID string) error {
	if s.shareErr != nil {
		return s.shareErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public[fileID] = true
	return nil
}

func (s *memStore) Delete(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, fileID)
	s.deleted = append(s.deleted, fileID)
	return nil
}

func (s *memStore) folder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folders[parentID+"/"+name]
}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadLocation(DefaultTimeZone)
	require.NoError(t, err)
	return loc
}

func asUser(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func newRenderer(t *testing.T) *document.Renderer {
	t.Helper()
	r, err := document.NewRenderer(testutil.Logger(t), "")
	require.NoError(t, err)
	return r
}

type declarationFixture struct {
	db      *gorm.DB
	store   *memStore
	repo    repos.DeclarationRepo
	presets repos.MaterialPresetRepo
	svc     DeclarationService
}

const testRootFolder = "root"

func newDeclarationFixture(t *testing.T, now time.Time, wrap func(repos.DeclarationRepo) repos.DeclarationRepo) *declarationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &declarationFixture{
		db:      db,
		store:   newMemStore(),
		repo:    repos.NewDeclarationRepo(db, log),
		presets: repos.NewMaterialPresetRepo(db, log),
	}
	repo := f.repo
	if wrap != nil {
		repo = wrap(repo)
	}
	f.svc = NewDeclarationService(db, log, repo, f.presets, repos.NewProfileRepo(db, log),
		newRenderer(t), f.store,
		DeclarationConfig{Location: berlin(t), Storage: StorageConfig{RootFolderID: testRootFolder, Timeout: time.Minute}},
		fixedClock(now),
	)
	return f
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected apierr, got %v", err)
	require.Equal(t, status, ae.Status)
	require.Equal(t, code, ae.Code)
	return ae
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

var errBoom = errors.New("boom")

func validInput() DeclarationInput {
	return DeclarationInput{
		JobNumber:       "A-1001",
		PatientName:     "Mustermann, Max",
		ManufactureDate: "2026-02-01",
		WorkItems: []WorkItemInput{
			{Description: "Zirkonkrone", ToothNumber: "11", ToothShade: "A2"},
			{Description: "Brückenglied", ToothNumber: "12"},
		},
		MaterialItems: []MaterialItemInput{{
			Material:     "Zirkon",
			Manufacturer: "Amann Girrbach",
			Composition:  "ZrO2",
			LotNumber:    "222705",
			CEStatus:     "Ja",
		}},
	}
}

func seedVerified(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	u, _ := testutil.SeedVerifiedUser(t, context.Background(), db, email)
	return u
}
