package widget

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// WidgetTestSuite exercises the widget configuration domain model
type WidgetTestSuite struct {
	suite.Suite
}

func (suite *WidgetTestSuite) TestKindValidation() {
	suite.Run("SupportedKinds_AreValid", func() {
		assert.True(suite.T(), KindContentList.Valid())
		assert.True(suite.T(), KindSingleContent.Valid())
		assert.True(suite.T(), KindCategoryFeed.Valid())
	})

	suite.Run("UnknownKind_IsInvalid", func() {
		assert.False(suite.T(), Kind("carousel").Valid())
		assert.False(suite.T(), Kind("").Valid())
	})
}

func (suite *WidgetTestSuite) TestDomainAllowed() {
	suite.Run("EmptyAllowlist_PermitsEveryDomain", func() {
		cfg := &Config{}
		assert.True(suite.T(), cfg.DomainAllowed("anything.example.com"))
		assert.True(suite.T(), cfg.DomainAllowed(""))
	})

	suite.Run("ExactMatch_IsPermitted", func() {
		cfg := &Config{AllowedDomains: []string{"example.com"}}
		assert.True(suite.T(), cfg.DomainAllowed("example.com"))
	})

	suite.Run("WWWPrefix_IsIgnoredOnBothSides", func() {
		cfg := &Config{AllowedDomains: []string{"www.example.com"}}
		assert.True(suite.T(), cfg.DomainAllowed("example.com"))
		assert.True(suite.T(), cfg.DomainAllowed("www.example.com"))
	})

	suite.Run("Subdomain_IsPermitted", func() {
		cfg := &Config{AllowedDomains: []string{"example.com"}}
		assert.True(suite.T(), cfg.DomainAllowed("blog.example.com"))
	})

	suite.Run("CaseInsensitive", func() {
		cfg := &Config{AllowedDomains: []string{"Example.COM"}}
		assert.True(suite.T(), cfg.DomainAllowed("EXAMPLE.com"))
	})

	suite.Run("UnrelatedDomain_IsRejected", func() {
		cfg := &Config{AllowedDomains: []string{"example.com"}}
		assert.False(suite.T(), cfg.DomainAllowed("evil.com"))
	})

	suite.Run("SuffixWithoutDotBoundary_IsRejected", func() {
		cfg := &Config{AllowedDomains: []string{"example.com"}}
		assert.False(suite.T(), cfg.DomainAllowed("notexample.com"))
	})
}

func (suite *WidgetTestSuite) TestBrandWatermark() {
	suite.Run("Watermark_TracksUpdatedAt", func() {
		updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		brand := &BrandConfig{UpdatedAt: updated}
		assert.Equal(suite.T(), "1772366400", brand.Watermark())
	})

	suite.Run("Update_ChangesWatermark", func() {
		brand := &BrandConfig{UpdatedAt: time.Now()}
		before := brand.Watermark()
		brand.UpdatedAt = brand.UpdatedAt.Add(time.Second)
		assert.NotEqual(suite.T(), before, brand.Watermark())
	})
}

func (suite *WidgetTestSuite) TestDefaultBrandConfig() {
	websiteID := uuid.New()
	brand := DefaultBrandConfig(websiteID)

	assert.Equal(suite.T(), websiteID, brand.WebsiteID)
	assert.NotEmpty(suite.T(), brand.PrimaryColor)
	assert.NotEmpty(suite.T(), brand.FontFamily)
	assert.False(suite.T(), brand.HideBranding)
}

func TestWidgetTestSuite(t *testing.T) {
	suite.Run(t, new(WidgetTestSuite))
}
