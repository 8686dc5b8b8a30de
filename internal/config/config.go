package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Paths           PathsConfig          `yaml:"paths" envconfig:"PATHS"`
	Logging         LoggingConfig        `yaml:"logging" envconfig:"LOGGING"`
	Validation      ValidationConfig     `yaml:"validation" envconfig:"VALIDATION"`
	Seasons         SeasonConfig         `yaml:"seasons" envconfig:"SEASONS"`
	Stress          StressConfig         `yaml:"stress" envconfig:"STRESS"`
	Impact          ImpactConfig         `yaml:"impact" envconfig:"IMPACT"`
	Recommendations RecommendationConfig `yaml:"recommendations" envconfig:"RECOMMENDATIONS"`
	Strategies      StrategyConfig       `yaml:"strategies"`
	Crops           []CropEconomics      `yaml:"crops" validate:"min=1,dive"`
}

// PathsConfig contains file system paths for input and output data
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	WorkbookName string `yaml:"workbook_name" envconfig:"WORKBOOK_NAME"`
	ResultsName  string `yaml:"results_name" envconfig:"RESULTS_NAME"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ValidationConfig contains the data quality thresholds
type ValidationConfig struct {
	RainfallMax      float64 `yaml:"rainfall_max" envconfig:"RAINFALL_MAX" validate:"gt=0"`
	TempMin          float64 `yaml:"temp_min" envconfig:"TEMP_MIN"`
	TempMax          float64 `yaml:"temp_max" envconfig:"TEMP_MAX" validate:"gtfield=TempMin"`
	DrySpellDays     int     `yaml:"dry_spell_days" envconfig:"DRY_SPELL_DAYS" validate:"gt=0"`
	DryDayRainfall   float64 `yaml:"dry_day_rainfall" envconfig:"DRY_DAY_RAINFALL" validate:"gte=0"`
	MissingThreshold float64 `yaml:"missing_threshold" envconfig:"MISSING_THRESHOLD" validate:"gte=0,lte=1"`
	ExtremeQuantile  float64 `yaml:"extreme_quantile" envconfig:"EXTREME_QUANTILE" validate:"gt=0,lt=1"`
}

// SeasonConfig contains the rainfall classification thresholds expressed
// as fractions of the seasonal mean
type SeasonConfig struct {
	DroughtThreshold float64 `yaml:"drought_threshold" envconfig:"DROUGHT_THRESHOLD" validate:"gt=0,lt=1"`
	ExcessThreshold  float64 `yaml:"excess_threshold" envconfig:"EXCESS_THRESHOLD" validate:"gt=1"`
}

// StressConfig contains the crop stress temperature and rainfall bounds
type StressConfig struct {
	TempHigh         float64 `yaml:"temp_high" envconfig:"TEMP_HIGH"`
	TempLow          float64 `yaml:"temp_low" envconfig:"TEMP_LOW"`
	OptimalTempLow   float64 `yaml:"optimal_temp_low" envconfig:"OPTIMAL_TEMP_LOW"`
	OptimalTempHigh  float64 `yaml:"optimal_temp_high" envconfig:"OPTIMAL_TEMP_HIGH" validate:"gtfield=OptimalTempLow"`
	MinDailyRainfall float64 `yaml:"min_daily_rainfall" envconfig:"MIN_DAILY_RAINFALL" validate:"gte=0"`
}

// ImpactConfig contains the yield loss percentages per season classification
type ImpactConfig struct {
	DroughtLossPct float64 `yaml:"drought_loss_pct" envconfig:"DROUGHT_LOSS_PCT" validate:"lte=0"`
	ExcessLossPct  float64 `yaml:"excess_loss_pct" envconfig:"EXCESS_LOSS_PCT" validate:"lte=0"`
}

// RecommendationConfig contains the gating thresholds for recommendations
type RecommendationConfig struct {
	LowResilienceScore     float64 `yaml:"low_resilience_score" envconfig:"LOW_RESILIENCE_SCORE"`
	HighInfrastructureRisk float64 `yaml:"high_infrastructure_risk" envconfig:"HIGH_INFRASTRUCTURE_RISK"`
	KharifStressPct        float64 `yaml:"kharif_stress_pct" envconfig:"KHARIF_STRESS_PCT"`
	SevereLoss             float64 `yaml:"severe_loss" envconfig:"SEVERE_LOSS"`
}

// StrategyConfig contains the adaptation strategy tiers. Scores below
// LowScoreBound get the Low set, below ModerateScoreBound the Moderate
// set, everything else the High set.
type StrategyConfig struct {
	LowScoreBound      float64  `yaml:"low_score_bound" validate:"gt=0"`
	ModerateScoreBound float64  `yaml:"moderate_score_bound" validate:"gtfield=LowScoreBound"`
	Low                []string `yaml:"low" validate:"min=1"`
	Moderate           []string `yaml:"moderate" validate:"min=1"`
	High               []string `yaml:"high" validate:"min=1"`
}

// CropEconomics describes the fixed economics of one crop
type CropEconomics struct {
	Name            string  `yaml:"name" validate:"required"`
	AreaHectares    float64 `yaml:"area_hectares" validate:"gt=0"`
	PricePerQuintal float64 `yaml:"price_per_quintal" validate:"gt=0"`
	YieldPerHectare float64 `yaml:"yield_per_hectare" validate:"gt=0"`
}

// Default returns the configuration with built-in defaults, matching the
// published crop economics and climate thresholds for the two regions
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:      "data/raw",
			OutputDir:    "data/processed",
			WorkbookName: "climate_analysis_results.xlsx",
			ResultsName:  "analysis_results.json",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/agripulse.log",
		},
		Validation: ValidationConfig{
			RainfallMax:      150,
			TempMin:          -5,
			TempMax:          50,
			DrySpellDays:     15,
			DryDayRainfall:   1,
			MissingThreshold: 0.1,
			ExtremeQuantile:  0.95,
		},
		Seasons: SeasonConfig{
			DroughtThreshold: 0.8,
			ExcessThreshold:  1.2,
		},
		Stress: StressConfig{
			TempHigh:         35,
			TempLow:          15,
			OptimalTempLow:   20,
			OptimalTempHigh:  30,
			MinDailyRainfall: 5,
		},
		Impact: ImpactConfig{
			DroughtLossPct: -20,
			ExcessLossPct:  -10,
		},
		Recommendations: RecommendationConfig{
			LowResilienceScore:     50,
			HighInfrastructureRisk: 70,
			KharifStressPct:        30,
			SevereLoss:             -1000000,
		},
		Strategies: StrategyConfig{
			LowScoreBound:      30,
			ModerateScoreBound: 60,
			Low: []string{
				"Implement comprehensive drought management plan",
				"Invest in climate-resistant crop varieties",
				"Develop water storage infrastructure",
			},
			Moderate: []string{
				"Improve irrigation efficiency",
				"Implement soil moisture conservation",
				"Diversify crop portfolio",
			},
			High: []string{
				"Maintain current resilience measures",
				"Monitor climate patterns",
				"Plan for future climate scenarios",
			},
		},
		Crops: []CropEconomics{
			{Name: "Soybean", AreaHectares: 3000000, PricePerQuintal: 4000, YieldPerHectare: 10},
			{Name: "Cotton", AreaHectares: 2500000, PricePerQuintal: 6000, YieldPerHectare: 8},
			{Name: "Wheat", AreaHectares: 2000000, PricePerQuintal: 2500, YieldPerHectare: 25},
			{Name: "Gram", AreaHectares: 1500000, PricePerQuintal: 5000, YieldPerHectare: 8},
			{Name: "Paddy", AreaHectares: 1800000, PricePerQuintal: 2200, YieldPerHectare: 20},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and AGRIPULSE_* environment variable overrides, in that order
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("AGRIPULSE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Seasons.ExcessThreshold <= c.Seasons.DroughtThreshold {
		return fmt.Errorf("invalid configuration: excess threshold %.2f must exceed drought threshold %.2f",
			c.Seasons.ExcessThreshold, c.Seasons.DroughtThreshold)
	}
	return nil
}

// CropNames returns the crop names in table order
func (c *Config) CropNames() []string {
	names := make([]string, len(c.Crops))
	for i, crop := range c.Crops {
		names[i] = crop.Name
	}
	return names
}
