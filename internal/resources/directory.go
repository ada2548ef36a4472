package resources

import (
	"strings"

	"github.com/chillbuddy/backend-go/internal/interfaces"
	"github.com/chillbuddy/backend-go/internal/models"
)

// Directory 危机支持资源目录：地区专属资源排在前面，通用资源追加在后
type Directory struct {
	regional map[string][]interfaces.Resource
	generic  []interfaces.Resource
}

// NewDirectory 创建内置资源目录
func NewDirectory() *Directory {
	return &Directory{
		regional: map[string][]interfaces.Resource{
			"za": {
				{Name: "South African Depression and Anxiety Group", Contact: "0800 567 567", Type: "hotline", Region: "za"},
				{Name: "Lifeline South Africa", Contact: "0861 322 322", Type: "hotline", Region: "za"},
				{Name: "SADAG Suicide Crisis Line", Contact: "0800 21 22 23", Type: "hotline", Region: "za"},
			},
			"us": {
				{Name: "988 Suicide & Crisis Lifeline", Contact: "988", Type: "hotline", Region: "us"},
				{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Type: "text_line", Region: "us"},
			},
		},
		generic: []interfaces.Resource{
			{Name: "International Association for Suicide Prevention", Contact: "https://www.iasp.info/resources/Crisis_Centres/", Type: "directory"},
			{Name: "Befrienders Worldwide", Contact: "https://www.befrienders.org", Type: "directory"},
		},
	}
}

// ResourcesFor 按风险级别与地区返回优先级有序的资源列表。
// 地区匹配的热线在前，通用资源追加；高风险级别附带紧急联系人。
func (d *Directory) ResourcesFor(riskLevel models.RiskLevel, region string) []interfaces.Resource {
	region = strings.ToLower(strings.TrimSpace(region))

	var out []interfaces.Resource
	if regional, ok := d.regional[region]; ok {
		out = append(out, regional...)
	}
	out = append(out, d.generic...)

	if riskLevel == models.RiskLevelCritical {
		out = append(out, interfaces.Resource{
			Name:    "Emergency Services",
			Contact: emergencyNumber(region),
			Type:    "emergency",
			Region:  region,
		})
	}
	return out
}

// EmergencyContacts 返回地区紧急联系人（热线与紧急服务）
func (d *Directory) EmergencyContacts(region string) []interfaces.Resource {
	region = strings.ToLower(strings.TrimSpace(region))

	var out []interfaces.Resource
	for _, r := range d.regional[region] {
		if r.Type == "hotline" || r.Type == "text_line" {
			out = append(out, r)
		}
	}
	out = append(out, interfaces.Resource{
		Name:    "Emergency Services",
		Contact: emergencyNumber(region),
		Type:    "emergency",
		Region:  region,
	})
	return out
}

func emergencyNumber(region string) string {
	switch region {
	case "za":
		return "10111"
	case "us":
		return "911"
	default:
		return "112"
	}
}
