package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/infrastructure/cache"
	"github.com/embedora/embedora/internal/infrastructure/cdn"
	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/infrastructure/optimize"
	"github.com/embedora/embedora/internal/infrastructure/persistence/memory"
	"github.com/embedora/embedora/internal/ports/inbound"
	"github.com/embedora/embedora/internal/ports/outbound"
	apperrors "github.com/embedora/embedora/pkg/errors"
	"github.com/embedora/embedora/test/testutils"
)

// DeliveryTestSuite exercises the cache-aside delivery engine against
// in-memory fakes.
type DeliveryTestSuite struct {
	suite.Suite

	widgets *testutils.FakeWidgetRepo
	brands  *testutils.FakeBrandRepo
	content *testutils.FakeContentRepo
	store   *memory.CacheStore
	monitor *testutils.RecordingMonitor
	service inbound.DeliveryService

	widgetFactory  *testutils.WidgetFactory
	contentFactory *testutils.ContentFactory
	assertions     *testutils.DeliveryAssertions

	websiteID uuid.UUID
	cfg       *widget.Config
}

func (suite *DeliveryTestSuite) SetupTest() {
	suite.widgets = testutils.NewFakeWidgetRepo()
	suite.brands = testutils.NewFakeBrandRepo()
	suite.content = testutils.NewFakeContentRepo()
	suite.store = memory.NewCacheStore()
	suite.monitor = testutils.NewRecordingMonitor()

	suite.widgetFactory = testutils.NewWidgetFactory(1)
	suite.contentFactory = testutils.NewContentFactory(1)
	suite.assertions = testutils.NewDeliveryAssertions(suite.T())

	suite.websiteID = uuid.New()
	suite.cfg = suite.widgetFactory.ContentListWidget(suite.websiteID)
	suite.widgets.Put(suite.cfg)
	suite.content.SetItems(suite.contentFactory.Items(25))

	suite.service = suite.newService(suite.store)
}

func (suite *DeliveryTestSuite) newService(store outbound.CacheStore) inbound.DeliveryService {
	cfg := &config.Config{
		App: config.AppConfig{PublicURL: "https://widgets.embedora.dev"},
		Cache: config.CacheConfig{
			ContentTTL:           5 * time.Minute,
			WidgetConfigTTL:      30 * time.Minute,
			BrandConfigTTL:       time.Hour,
			CSSTTL:               time.Hour,
			CompressionThreshold: 1024,
		},
		CDN: config.CDNConfig{
			ImageBaseURL:   "https://img.embedora.dev/opt",
			DefaultQuality: 80,
			DefaultFormat:  "webp",
			DefaultRegion:  "us-east",
		},
		Optimize: config.OptimizeConfig{
			MinifyHTML:        true,
			MinifyCSS:         true,
			OptimizeImages:    true,
			LazyLoading:       true,
			ResponsiveImages:  true,
			InlineCriticalCSS: true,
			PreloadHeaders:    true,
		},
	}

	return NewService(
		suite.widgets,
		suite.brands,
		suite.content,
		store,
		cache.NewCodec(cfg.Cache.CompressionThreshold),
		cache.NewKeyBuilder("test"),
		optimize.NewEngine(cdn.NewPolicy(cfg.CDN)),
		suite.monitor,
		cfg,
		zap.NewNop(),
	)
}

func (suite *DeliveryTestSuite) deliver(opts widget.RenderOptions) *widget.DeliveryResponse {
	resp, err := suite.service.Deliver(context.Background(), suite.cfg.ID, opts)
	require.NoError(suite.T(), err)
	return resp
}

func (suite *DeliveryTestSuite) TestMissThenHit() {
	opts := widget.RenderOptions{Page: 1, Limit: 10}

	first := suite.deliver(opts)
	suite.assertions.ValidResponse(first)
	assert.False(suite.T(), first.Performance.CacheHit, "first delivery renders from source")
	assert.Equal(suite.T(), 1, suite.content.Calls)

	second := suite.deliver(opts)
	suite.assertions.ValidResponse(second)
	assert.True(suite.T(), second.Performance.CacheHit, "second delivery must be served from cache")
	assert.Equal(suite.T(), 1, suite.content.Calls, "a cache hit never touches the content store")
	assert.Equal(suite.T(), first.HTML, second.HTML)
	assert.Equal(suite.T(), first.Data.Total, second.Data.Total)
}

func (suite *DeliveryTestSuite) TestViewportNeverPoisonsCache() {
	mobile := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10, Viewport: "mobile"})
	assert.False(suite.T(), mobile.Performance.CacheHit)
	assert.NotContains(suite.T(), mobile.CSS, "min-width:1024px",
		"mobile callers get the pruned stylesheet")

	desktop := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10, Viewport: "desktop"})
	assert.True(suite.T(), desktop.Performance.CacheHit,
		"viewport is provenance, not part of the request shape")
	assert.Contains(suite.T(), desktop.CSS, "min-width:1024px",
		"a mobile render must not strip desktop layout from the shared cache entry")

	mobileAgain := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10, Viewport: "mobile"})
	assert.True(suite.T(), mobileAgain.Performance.CacheHit)
	assert.NotContains(suite.T(), mobileAgain.CSS, "min-width:1024px",
		"the pruning applies on hits too")
}

func (suite *DeliveryTestSuite) TestPreloadLinksCarried() {
	first := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
	require.NotEmpty(suite.T(), first.PreloadLinks)
	assert.Contains(suite.T(), first.PreloadLinks[0], "rel=preload; as=image")
	assert.Contains(suite.T(), first.PreloadLinks[0], "img.embedora.dev")

	second := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
	assert.True(suite.T(), second.Performance.CacheHit)
	assert.Equal(suite.T(), first.PreloadLinks, second.PreloadLinks,
		"preload links survive the cache round trip")
}

func (suite *DeliveryTestSuite) TestDistinctRequestShapesRenderSeparately() {
	suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
	suite.deliver(widget.RenderOptions{Page: 2, Limit: 10})

	assert.Equal(suite.T(), 2, suite.content.Calls, "each request shape has its own cache entry")
}

func (suite *DeliveryTestSuite) TestProvenanceDoesNotFragmentCache() {
	suite.deliver(widget.RenderOptions{Page: 1, Limit: 10, Referrer: "https://a.example.com/x", UserAgent: "A"})
	resp := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10, Referrer: "https://b.example.org/y", UserAgent: "B"})

	assert.True(suite.T(), resp.Performance.CacheHit)
	assert.Equal(suite.T(), 1, suite.content.Calls)
}

func (suite *DeliveryTestSuite) TestPagination() {
	suite.Run("LimitIsHardCapped", func() {
		suite.deliver(widget.RenderOptions{Page: 1, Limit: 500})
		assert.Equal(suite.T(), MaxPageSize, suite.content.LastQuery.Limit)
	})

	suite.Run("ZeroLimitFallsBackToWidgetDefault", func() {
		suite.deliver(widget.RenderOptions{Page: 1})
		assert.Equal(suite.T(), suite.cfg.ItemsPerPage, suite.content.LastQuery.Limit)
	})

	suite.Run("PageArithmetic", func() {
		resp := suite.deliver(widget.RenderOptions{Page: 2, Limit: 10})
		assert.Equal(suite.T(), 10, suite.content.LastQuery.Offset)
		assert.Equal(suite.T(), 25, resp.Data.Total)
		assert.Equal(suite.T(), 3, resp.Data.TotalPages)
		assert.True(suite.T(), resp.Data.HasMore)
	})

	suite.Run("LastPageHasNoMore", func() {
		resp := suite.deliver(widget.RenderOptions{Page: 3, Limit: 10})
		assert.False(suite.T(), resp.Data.HasMore)
	})
}

func (suite *DeliveryTestSuite) TestSmallResultSet() {
	suite.content.SetItems(suite.contentFactory.Items(2))

	resp := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})

	assert.Equal(suite.T(), 2, resp.Data.Total)
	assert.Equal(suite.T(), 1, resp.Data.TotalPages)
	assert.False(suite.T(), resp.Data.HasMore)
	require.NotNil(suite.T(), resp.Meta.StructuredData)
	assert.Equal(suite.T(), 2, resp.Meta.StructuredData["numberOfItems"])
}

func (suite *DeliveryTestSuite) TestDomainPolicy() {
	restricted := suite.widgetFactory.RestrictedWidget(suite.websiteID, "example.com")
	suite.widgets.Put(restricted)

	// Each case uses a distinct request shape so no case is served from an
	// entry another case rendered.
	suite.Run("NoReferrer_IsAllowed", func() {
		_, err := suite.service.Deliver(context.Background(), restricted.ID, widget.RenderOptions{Page: 1, Limit: 5})
		assert.NoError(suite.T(), err, "server-side and direct fetches carry no referrer")
	})

	suite.Run("AllowedDomain_IsAllowed", func() {
		_, err := suite.service.Deliver(context.Background(), restricted.ID,
			widget.RenderOptions{Page: 1, Limit: 6, Referrer: "https://www.example.com/blog"})
		assert.NoError(suite.T(), err)
	})

	suite.Run("Subdomain_IsAllowed", func() {
		_, err := suite.service.Deliver(context.Background(), restricted.ID,
			widget.RenderOptions{Page: 1, Limit: 7, Referrer: "https://news.example.com/"})
		assert.NoError(suite.T(), err)
	})

	suite.Run("UnauthorizedDomain_IsForbidden", func() {
		_, err := suite.service.Deliver(context.Background(), restricted.ID,
			widget.RenderOptions{Page: 1, Limit: 8, Referrer: "https://evil.test/steal"})
		require.Error(suite.T(), err)
		assert.Equal(suite.T(), apperrors.CodeDomainForbidden, apperrors.GetCode(err))

		var appErr *apperrors.AppError
		require.True(suite.T(), errors.As(err, &appErr))
		assert.Equal(suite.T(), 403, appErr.StatusCode())
	})
}

func (suite *DeliveryTestSuite) TestWidgetNotFound() {
	suite.Run("UnknownWidget", func() {
		_, err := suite.service.Deliver(context.Background(), uuid.New(), widget.RenderOptions{Page: 1})
		require.Error(suite.T(), err)
		assert.Equal(suite.T(), apperrors.CodeWidgetNotFound, apperrors.GetCode(err))
	})

	suite.Run("PrivateWidget_IsIndistinguishable", func() {
		private := suite.widgetFactory.ContentListWidget(suite.websiteID)
		private.IsPublic = false
		suite.widgets.Put(private)

		_, err := suite.service.Deliver(context.Background(), private.ID, widget.RenderOptions{Page: 1})
		require.Error(suite.T(), err)
		assert.Equal(suite.T(), apperrors.CodeWidgetNotFound, apperrors.GetCode(err))
	})
}

func (suite *DeliveryTestSuite) TestBodyProjection() {
	suite.Run("ListWidget_SkipsBody", func() {
		suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
		assert.False(suite.T(), suite.content.LastQuery.IncludeBody)
	})

	suite.Run("SingleContentWidget_IncludesBody", func() {
		single := suite.widgetFactory.SingleContentWidget(suite.websiteID)
		suite.widgets.Put(single)

		_, err := suite.service.Deliver(context.Background(), single.ID, widget.RenderOptions{Page: 1})
		require.NoError(suite.T(), err)
		assert.True(suite.T(), suite.content.LastQuery.IncludeBody)
	})
}

func (suite *DeliveryTestSuite) TestInvalidateWidgetCache() {
	opts := widget.RenderOptions{Page: 1, Limit: 10}
	suite.deliver(opts)
	require.Equal(suite.T(), 1, suite.content.Calls)

	require.NoError(suite.T(), suite.service.InvalidateWidgetCache(context.Background(), suite.cfg.ID))

	resp := suite.deliver(opts)
	assert.False(suite.T(), resp.Performance.CacheHit, "invalidation must force a fresh render")
	assert.Equal(suite.T(), 2, suite.content.Calls)
}

func (suite *DeliveryTestSuite) TestInvalidateWidgetCacheIsScoped() {
	other := suite.widgetFactory.ContentListWidget(suite.websiteID)
	suite.widgets.Put(other)

	opts := widget.RenderOptions{Page: 1, Limit: 10}
	suite.deliver(opts)
	_, err := suite.service.Deliver(context.Background(), other.ID, opts)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, suite.content.Calls)

	require.NoError(suite.T(), suite.service.InvalidateWidgetCache(context.Background(), suite.cfg.ID))

	resp, err := suite.service.Deliver(context.Background(), other.ID, opts)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), resp.Performance.CacheHit, "other widgets' entries must survive")
}

func (suite *DeliveryTestSuite) TestBrandTheme() {
	suite.Run("MissingBrand_FallsBackToDefault", func() {
		resp := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
		assert.Contains(suite.T(), resp.CSS, "#2563eb", "default theme applies when a site has no brand config")
	})

	suite.Run("BrandUpdate_RefreshesCSSAfterInvalidation", func() {
		brand := suite.widgetFactory.BrandConfig(suite.websiteID)
		brand.PrimaryColor = "#ff0055"
		suite.brands.Put(brand)

		require.NoError(suite.T(), suite.service.InvalidateWidgetCache(context.Background(), suite.cfg.ID))
		require.NoError(suite.T(), suite.service.InvalidateBrandCache(context.Background(), suite.websiteID))

		resp := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})
		assert.Contains(suite.T(), resp.CSS, "#ff0055")
	})
}

func (suite *DeliveryTestSuite) TestStoreFailureDegradesToMiss() {
	broken := suite.newService(&failingStore{})

	resp, err := broken.Deliver(context.Background(), suite.cfg.ID, widget.RenderOptions{Page: 1, Limit: 10})
	require.NoError(suite.T(), err, "a dead cache store must never fail a delivery")
	suite.assertions.ValidResponse(resp)
	assert.False(suite.T(), resp.Performance.CacheHit)
}

func (suite *DeliveryTestSuite) TestMetricsReported() {
	opts := widget.RenderOptions{Page: 1, Limit: 10, Viewport: "mobile", Region: "eu-west", UserAgent: "test-agent"}
	suite.deliver(opts)
	suite.deliver(opts)

	rows := suite.monitor.Recorded()
	require.Len(suite.T(), rows, 2)
	assert.False(suite.T(), rows[0].CacheHit)
	assert.True(suite.T(), rows[1].CacheHit)
	assert.Equal(suite.T(), "eu-west", rows[0].Region)
	assert.Equal(suite.T(), "mobile", rows[0].Viewport)
	assert.Equal(suite.T(), suite.cfg.ID, rows[0].WidgetID)
	assert.Greater(suite.T(), rows[0].ContentSize, 0)
}

func (suite *DeliveryTestSuite) TestFailureReportsErrorMetric() {
	_, err := suite.service.Deliver(context.Background(), uuid.New(), widget.RenderOptions{Page: 1})
	require.Error(suite.T(), err)

	rows := suite.monitor.Recorded()
	require.Len(suite.T(), rows, 1)
	assert.Equal(suite.T(), 1, rows[0].ErrorCount)
}

func (suite *DeliveryTestSuite) TestRenderedDocument() {
	items := suite.contentFactory.Items(3)
	suite.content.SetItems(items)

	resp := suite.deliver(widget.RenderOptions{Page: 1, Limit: 10})

	assert.Contains(suite.T(), resp.HTML, `data-widget-id="`+suite.cfg.ID.String()+`"`)
	assert.Contains(suite.T(), resp.HTML, "Powered by Embedora")
	suite.assertions.ContainsItems(resp, items)
	assert.Equal(suite.T(),
		"https://widgets.embedora.dev/widgets/"+suite.cfg.ID.String(),
		resp.Meta.Canonical)
}

func TestDeliveryTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryTestSuite))
}

// failingStore simulates a cache store whose backend is down
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errStoreDown
}
func (f *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errStoreDown
}
func (f *failingStore) Delete(ctx context.Context, keys ...string) error { return errStoreDown }
func (f *failingStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	return 0, errStoreDown
}
func (f *failingStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, errStoreDown
}
func (f *failingStore) HSet(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error {
	return errStoreDown
}
func (f *failingStore) ZAdd(ctx context.Context, key string, score float64, member string, ttl time.Duration) error {
	return errStoreDown
}
func (f *failingStore) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	return errStoreDown
}
func (f *failingStore) ZCard(ctx context.Context, key string) (int64, error) {
	return 0, errStoreDown
}
