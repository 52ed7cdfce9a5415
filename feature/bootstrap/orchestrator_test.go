package bootstrap_test

import (
	"context"
	"testing"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/api/apitest"
	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/bootstrap"
	"tenant-bootstrapper/feature/items"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/spec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMedia struct {
	transcoder bool
}

func (m fakeMedia) Upload(context.Context, string, string) (media.Asset, error) {
	return media.Asset{Key: "media/file.png", MimeType: "image/png"}, nil
}

func (m fakeMedia) TranscoderAvailable() bool { return m.transcoder }

func tenantFake() *apitest.Fake {
	return apitest.New().
		On("GET_SHAPES", apitest.Data(map[string]any{
			"shape": map[string]any{"getMany": []any{map[string]any{"identifier": "folder", "type": "folder"}}},
		})).
		On("GET_LANGUAGES", apitest.Data(map[string]any{
			"tenant": map[string]any{"get": map[string]any{
				"defaults":           map[string]any{"language": "en"},
				"availableLanguages": []any{map[string]any{"code": "en"}},
			}},
		})).
		On("GET_TENANT_ROOT", apitest.Data(map[string]any{
			"tenant": map[string]any{"get": map[string]any{"id": "tenant-1", "rootItemId": "root"}},
		})).
		On("CREATE_ITEM", func(req api.Request) api.Result {
			return api.Result{Data: map[string]any{"folder": map[string]any{"create": map[string]any{"id": "item-1"}}}}
		})
}

func parseSpec(t *testing.T, raw string) *spec.Spec {
	t.Helper()
	s, err := spec.Parse([]byte(raw))
	require.NoError(t, err)
	return s
}

const folderSpec = `{"items": [{"name": "Shop", "externalReference": "shop", "shape": "folder"}]}`

func areasDone(rec *events.Recorder) []string {
	var out []string
	for _, e := range rec.OfType(events.TypeAreaDone) {
		out = append(out, e.Area)
	}
	return out
}

func TestOrchestrator_Run(t *testing.T) {
	fake := tenantFake()
	rec := events.NewRecorder()
	tracker := bootstrap.NewTracker("run-1")
	o := bootstrap.NewOrchestrator(fake, fakeMedia{}, events.Multi(rec, tracker), zap.NewNop(),
		bootstrap.Options{TenantID: "tenant-1"})

	res, err := o.Run(context.Background(), parseSpec(t, folderSpec))
	require.NoError(t, err)

	assert.Equal(t, "en", res.Language)
	assert.Equal(t, items.Summary{Created: 1, Published: 1}, res.Items)
	assert.Empty(t, res.FailedAreas)

	done := areasDone(rec)
	require.Len(t, done, 9)
	assert.Equal(t, []string{"shapes", "languages"}, done[:2])
	assert.ElementsMatch(t, []string{"price-variants", "stock-locations", "vat-types", "subscription-plans"}, done[2:6])
	assert.Equal(t, []string{"topics", "grids", "items"}, done[6:])

	warnings := rec.OfType(events.TypeWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, events.CodeFFmpegUnavailable, warnings[0].Code)

	all := rec.Events()
	assert.Equal(t, events.TypeDone, all[len(all)-1].Type)

	created := fake.Calls("CREATE_ITEM")
	require.Len(t, created, 1)
	tree := created[0].Variables["input"].(map[string]any)["tree"].(map[string]any)
	assert.Equal(t, "root", tree["parentId"])

	status := tracker.Snapshot()
	assert.Equal(t, bootstrap.StateDone, status.State)
	assert.Equal(t, 1, status.Created)
	assert.Equal(t, 1, status.Published)
	assert.Equal(t, bootstrap.StateDone, status.Areas["items"].State)
	assert.Equal(t, float64(1), status.Areas["shapes"].Progress)
}

func TestOrchestrator_TranscoderAvailable(t *testing.T) {
	rec := events.NewRecorder()
	o := bootstrap.NewOrchestrator(tenantFake(), fakeMedia{transcoder: true}, rec, zap.NewNop(),
		bootstrap.Options{TenantID: "tenant-1"})

	_, err := o.Run(context.Background(), parseSpec(t, folderSpec))
	require.NoError(t, err)
	assert.Empty(t, rec.OfType(events.TypeWarning))
}

func TestOrchestrator_FailedAreaContinues(t *testing.T) {
	fake := tenantFake().On("GET_SHAPES", apitest.Errors("forbidden"))
	rec := events.NewRecorder()
	tracker := bootstrap.NewTracker("run-2")
	o := bootstrap.NewOrchestrator(fake, nil, events.Multi(rec, tracker), zap.NewNop(),
		bootstrap.Options{TenantID: "tenant-1"})

	res, err := o.Run(context.Background(), parseSpec(t, folderSpec))
	require.NoError(t, err)

	assert.Equal(t, []string{"shapes"}, res.FailedAreas)
	assert.Equal(t, items.Summary{Failed: 1}, res.Items)

	errs := rec.OfType(events.TypeError)
	require.NotEmpty(t, errs)
	assert.Equal(t, "shapes", errs[0].Area)
	assert.Equal(t, events.CodeRemoteError, errs[0].Code)
	assert.Contains(t, errs[0].Message, "forbidden")

	status := tracker.Snapshot()
	assert.Equal(t, bootstrap.StateDone, status.State)
	assert.Equal(t, bootstrap.StateFailed, status.Areas["shapes"].State)
	assert.Equal(t, bootstrap.StateDone, status.Areas["languages"].State)
}

func TestOrchestrator_LanguageOverride(t *testing.T) {
	fake := tenantFake()
	o := bootstrap.NewOrchestrator(fake, nil, events.Discard, zap.NewNop(),
		bootstrap.Options{TenantID: "tenant-1", Items: items.Options{Language: "no"}})

	res, err := o.Run(context.Background(), parseSpec(t, `{"items": []}`))
	require.NoError(t, err)
	assert.Equal(t, "no", res.Language)

	topics := fake.Calls("GET_TOPICS")
	require.Len(t, topics, 2)
	assert.Equal(t, "no", topics[0].Variables["language"])
	assert.Equal(t, "en", topics[1].Variables["language"])
}

func TestOrchestrator_NoLanguage(t *testing.T) {
	fake := tenantFake().On("GET_LANGUAGES", apitest.Data(map[string]any{}))
	o := bootstrap.NewOrchestrator(fake, nil, events.Discard, zap.NewNop(), bootstrap.Options{TenantID: "tenant-1"})

	_, err := o.Run(context.Background(), parseSpec(t, folderSpec))
	assert.ErrorContains(t, err, "no target language")
}

func TestOrchestrator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := events.NewRecorder()
	o := bootstrap.NewOrchestrator(tenantFake(), nil, rec, zap.NewNop(), bootstrap.Options{TenantID: "tenant-1"})

	_, err := o.Run(ctx, parseSpec(t, folderSpec))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.OfType(events.TypeDone))
	assert.Empty(t, rec.OfType(events.TypeAreaDone))
}

func TestNotifier(t *testing.T) {
	rec := events.NewRecorder()
	bootstrap.Notifier(rec)("rate limited by the API, retrying in 5 seconds", true)

	errs := rec.OfType(events.TypeError)
	require.Len(t, errs, 1)
	assert.True(t, errs[0].WillRetry)
	assert.Equal(t, events.CodeRemoteError, errs[0].Code)
}
