package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chillbuddy/backend-go/internal/models"
)

func TestResourcesFor_RegionalFirst(t *testing.T) {
	d := NewDirectory()

	out := d.ResourcesFor(models.RiskLevelHigh, "za")

	require.NotEmpty(t, out)
	// 地区专属热线排在通用资源之前
	assert.Equal(t, "South African Depression and Anxiety Group", out[0].Name)
	assert.Equal(t, "0800 567 567", out[0].Contact)
	assert.Equal(t, "za", out[0].Region)

	var sawGeneric bool
	for _, r := range out {
		if r.Type == "directory" {
			sawGeneric = true
			assert.Empty(t, r.Region)
		}
	}
	assert.True(t, sawGeneric)
}

func TestResourcesFor_CriticalAddsEmergency(t *testing.T) {
	d := NewDirectory()

	high := d.ResourcesFor(models.RiskLevelHigh, "za")
	critical := d.ResourcesFor(models.RiskLevelCritical, "za")

	assert.Len(t, critical, len(high)+1)
	last := critical[len(critical)-1]
	assert.Equal(t, "emergency", last.Type)
	assert.Equal(t, "10111", last.Contact)

	us := d.ResourcesFor(models.RiskLevelCritical, "us")
	assert.Equal(t, "911", us[len(us)-1].Contact)
}

func TestResourcesFor_UnknownRegionFallsBack(t *testing.T) {
	d := NewDirectory()

	out := d.ResourcesFor(models.RiskLevelCritical, "fr")

	// 未收录地区仍有通用资源与国际紧急号码
	require.NotEmpty(t, out)
	assert.Equal(t, "112", out[len(out)-1].Contact)
}

func TestResourcesFor_RegionNormalized(t *testing.T) {
	d := NewDirectory()

	upper := d.ResourcesFor(models.RiskLevelHigh, " ZA ")
	lower := d.ResourcesFor(models.RiskLevelHigh, "za")

	assert.Equal(t, lower, upper)
}

func TestEmergencyContacts(t *testing.T) {
	d := NewDirectory()

	za := d.EmergencyContacts("za")
	require.NotEmpty(t, za)
	for _, r := range za[:len(za)-1] {
		assert.Contains(t, []string{"hotline", "text_line"}, r.Type)
	}
	assert.Equal(t, "emergency", za[len(za)-1].Type)

	// 未知地区仍返回紧急服务号码
	unknown := d.EmergencyContacts("xx")
	require.Len(t, unknown, 1)
	assert.Equal(t, "112", unknown[0].Contact)
}
