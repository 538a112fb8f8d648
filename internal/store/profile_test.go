package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	profile, err := ParseProfile([]byte(validProfileJSON))
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Personal.FirstName)
	assert.Equal(t, "https://linkedin.com/in/ada", profile.Links.LinkedIn)
	assert.Equal(t, "", profile.Links.GitHub)
	assert.NotNil(t, profile.Education)
	assert.NotNil(t, profile.Skills)
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{"personal":`, "not valid JSON"},
		{"missing personal", `{"links":{},"work_auth":{},"documents":{}}`, "personal"},
		{"missing email", `{"personal":{"first_name":"a","last_name":"b","phone":"","location":""},"links":{},"work_auth":{},"documents":{}}`, "email"},
		{"wrong type", `{"personal":{"first_name":"a","last_name":"b","email":"","phone":"","location":""},"links":{},"work_auth":{"need_sponsorship":"yes"},"documents":{}}`, "need_sponsorship"},
		{"experience without title", `{"personal":{"first_name":"a","last_name":"b","email":"","phone":"","location":""},"links":{},"work_auth":{},"documents":{},"experience":[{"company":"x"}]}`, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeProfileInvalid))
			assert.Contains(t, errors.MessageOf(err), tt.want)
		})
	}
}

func TestParseProfile_LooseFormatsStillLoad(t *testing.T) {
	doc := `{"personal":{"first_name":"a","last_name":"b","email":"nope","phone":"","location":""},
	  "links":{"linkedin":"linkedin.com/in/x"},"work_auth":{},"documents":{},
	  "experience":[{"company":"","title":""}],"education":[{"school":"","degree":""}]}`

	profile, err := ParseProfile([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "linkedin.com/in/x", profile.Links.LinkedIn)
	assert.Equal(t, "", profile.Experience[0].Company)

	warnings := ProfileWarnings(profile)
	assert.Equal(t, []string{"personal.email failed 'email'", "links.linkedin failed 'url'"}, warnings)
}

func TestProfileWarnings_CleanProfile(t *testing.T) {
	profile, err := ParseProfile([]byte(validProfileJSON))
	require.NoError(t, err)
	assert.Empty(t, ProfileWarnings(profile))
}

func TestRequestProfile(t *testing.T) {
	none, err := RequestProfile(types.AnswerRequest{})
	require.NoError(t, err)
	assert.Nil(t, none)

	var empty types.AnswerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"fields":[],"profile":{}}`), &empty))
	_, err = RequestProfile(empty)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileInvalid))

	var nullProfile types.AnswerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"fields":[],"profile":null}`), &nullProfile))
	none, err = RequestProfile(nullProfile)
	require.NoError(t, err)
	assert.Nil(t, none)

	var full types.AnswerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"fields":[],"profile":`+validProfileJSON+`}`), &full))
	got, err := RequestProfile(full)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Personal.FirstName)
	assert.NotNil(t, got.Skills)
}

func TestProfileStore_Load(t *testing.T) {
	store := NewProfileStore(writeProfileFile(t, validProfileJSON), testLogger)
	assert.False(t, store.Loaded())

	require.NoError(t, store.Load())
	assert.True(t, store.Loaded())
	assert.Equal(t, "London, UK", store.Get().Personal.Location)
}

func TestProfileStore_LoadMissing(t *testing.T) {
	store := NewProfileStore(filepath.Join(t.TempDir(), "profile.json"), testLogger)
	err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileNotFound))
	assert.False(t, store.Loaded())
}

func TestProfileStore_LoadCorrupt(t *testing.T) {
	store := NewProfileStore(writeProfileFile(t, "{corrupt"), testLogger)
	err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileInvalid))
}

func TestProfileStore_GetReturnsCopy(t *testing.T) {
	store := NewProfileStore(writeProfileFile(t, validProfileJSON), testLogger)
	require.NoError(t, store.Load())

	got := store.Get()
	got.Experience[0].Company = "changed"
	got.Skills = append(got.Skills, "go")

	again := store.Get()
	assert.Equal(t, "Analytical Engines", again.Experience[0].Company)
	assert.Empty(t, again.Skills)
}

func TestProfileStore_Replace(t *testing.T) {
	path := writeProfileFile(t, validProfileJSON)
	store := NewProfileStore(path, testLogger)
	require.NoError(t, store.Load())

	next := store.Get()
	next.Personal.Location = "Berlin, Germany"
	next.Skills = []string{"go", "sql"}

	saved, err := store.Replace(next)
	require.NoError(t, err)
	assert.Equal(t, "Berlin, Germany", saved.Personal.Location)
	assert.Equal(t, "Berlin, Germany", store.Get().Personal.Location)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk types.Profile
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, []string{"go", "sql"}, onDisk.Skills)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	reloaded := NewProfileStore(path, testLogger)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, store.Get(), reloaded.Get())
}

func TestProfileStore_ReplaceAcceptsLooseFormats(t *testing.T) {
	store := NewProfileStore(writeProfileFile(t, validProfileJSON), testLogger)
	require.NoError(t, store.Load())

	next := store.Get()
	next.Personal.Email = "not-an-email"
	next.Links.LinkedIn = "linkedin.com/in/ada"
	saved, err := store.Replace(next)
	require.NoError(t, err)
	assert.Equal(t, "not-an-email", saved.Personal.Email)
	assert.Equal(t, "linkedin.com/in/ada", store.Get().Links.LinkedIn)
}

func TestProfileStore_ReplacePersistFailureKeepsCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir", "profile.json")
	store := NewProfileStore(path, testLogger)

	profile, err := ParseProfile([]byte(validProfileJSON))
	require.NoError(t, err)

	_, err = store.Replace(profile)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfilePersistFailed))
	assert.False(t, store.Loaded())
	assert.Equal(t, "", store.Get().Personal.FirstName)
}

func TestProfileStore_ReloadKeepsCacheOnCorruption(t *testing.T) {
	path := writeProfileFile(t, validProfileJSON)
	store := NewProfileStore(path, testLogger)
	require.NoError(t, store.Load())

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	assert.Error(t, store.Reload())
	assert.Equal(t, "Ada", store.Get().Personal.FirstName)
}

func TestProfileStore_ConcurrentReplace(t *testing.T) {
	store := NewProfileStore(writeProfileFile(t, validProfileJSON), testLogger)
	require.NoError(t, store.Load())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := store.Get()
			p.Skills = []string{string(rune('a' + i))}
			_, err := store.Replace(p)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	fresh := NewProfileStore(store.Path(), testLogger)
	require.NoError(t, fresh.Load())
	assert.Equal(t, store.Get(), fresh.Get())
}
