package analysis

import (
	"agripulse/internal/dataset"
	"agripulse/internal/resilience"
	"agripulse/internal/transform"
)

// SeasonClass is the rainfall classification of one seasonal value
type SeasonClass string

const (
	ClassDrought    SeasonClass = "Drought"
	ClassExcessRain SeasonClass = "Excess Rain"
	ClassNormal     SeasonClass = "Normal"
)

// ClassifiedSeason is one seasonal value with its classification
type ClassifiedSeason struct {
	Year  int         `json:"year"`
	Value float64     `json:"value"`
	Class SeasonClass `json:"class"`
}

// Classification maps each region+season to its classified yearly values
type Classification map[transform.SeasonalKey][]ClassifiedSeason

// EconomicImpactRecord is the estimated loss for one
// (region, year, season, crop) combination
type EconomicImpactRecord struct {
	Region        dataset.Region `json:"-"`
	RegionName    string         `json:"region"`
	Year          int            `json:"year"`
	Season        dataset.Season `json:"-"`
	SeasonName    string         `json:"season"`
	Crop          string         `json:"crop"`
	Class         SeasonClass    `json:"class"`
	BaseYield     float64        `json:"base_yield_qtl"`
	BaseRevenue   float64        `json:"base_revenue"`
	EstimatedLoss float64        `json:"estimated_loss"`
}

// RecommendationBundle groups the final per-region recommendations by
// concern
type RecommendationBundle struct {
	ClimateAdaptation []string `json:"climate_adaptation"`
	EconomicMeasures  []string `json:"economic_measures"`
	Infrastructure    []string `json:"infrastructure"`
	CropManagement    []string `json:"crop_management"`
}

// Result is the full output of the analysis stage
type Result struct {
	Classification     Classification                          `json:"classification"`
	EconomicImpact     []EconomicImpactRecord                  `json:"economic_impact"`
	InfrastructureRisk map[dataset.Region]float64              `json:"infrastructure_risk"`
	CropStress         map[transform.SeasonalKey]float64       `json:"crop_stress"`
	Scores             map[dataset.Region]resilience.Score     `json:"resilience"`
	Recommendations    map[dataset.Region][]string             `json:"recommendations"`
	Bundles            map[dataset.Region]RecommendationBundle `json:"final_recommendations"`
}
