package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"gvif/domain/dataset"
)

// HousingGeneratorConfig configures the synthetic housing predictor generator
type HousingGeneratorConfig struct {
	Rows        int      `json:"rows"`
	Regions     []string `json:"regions"`
	RegionNoise float64  `json:"region_noise"` // spread of median_income around its region mean
	MissingRate float64  `json:"missing_rate"` // share of blank region labels
	Seed        int64    `json:"seed"`
}

// DefaultHousingConfig returns a config whose output has one collinear
// numeric pair (sqft, rooms) and one numeric column driven by a factor
// (median_income by region).
func DefaultHousingConfig() HousingGeneratorConfig {
	return HousingGeneratorConfig{
		Rows:        500,
		Regions:     []string{"coast", "inland", "metro", "rural"},
		RegionNoise: 0.5,
		MissingRate: 0,
		Seed:        42,
	}
}

// HousingDataGenerator generates predictor tables with known collinearity
type HousingDataGenerator struct {
	config HousingGeneratorConfig
	rng    *rand.Rand
}

// NewHousingDataGenerator creates a new generator
func NewHousingDataGenerator(config HousingGeneratorConfig) *HousingDataGenerator {
	return &HousingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a table with columns sqft, rooms, age, region and median_income
func (g *HousingDataGenerator) Generate() (*dataset.Table, error) {
	n := g.config.Rows
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 rows, got %d", n)
	}
	if len(g.config.Regions) < 2 {
		return nil, fmt.Errorf("need at least 2 regions, got %d", len(g.config.Regions))
	}

	incomeByRegion := make(map[string]float64, len(g.config.Regions))
	for i, r := range g.config.Regions {
		incomeByRegion[r] = 40 + 15*float64(i)
	}

	sqft := make([]float64, n)
	rooms := make([]float64, n)
	age := make([]float64, n)
	income := make([]float64, n)
	region := make([]string, n)

	for i := 0; i < n; i++ {
		sqft[i] = math.Max(300, 1500+400*g.rng.NormFloat64())
		rooms[i] = math.Round(sqft[i]/250 + 0.2*g.rng.NormFloat64())
		age[i] = math.Round(80 * g.rng.Float64())

		// Cycling first guarantees every region is observed.
		r := g.config.Regions[i%len(g.config.Regions)]
		if i >= len(g.config.Regions) {
			r = g.config.Regions[g.rng.Intn(len(g.config.Regions))]
		}
		income[i] = incomeByRegion[r] + g.config.RegionNoise*g.rng.NormFloat64()
		if i >= len(g.config.Regions) && g.rng.Float64() < g.config.MissingRate {
			r = ""
		}
		region[i] = r
	}

	return dataset.NewTable(
		dataset.NumericColumn("sqft", sqft),
		dataset.NumericColumn("rooms", rooms),
		dataset.NumericColumn("age", age),
		dataset.CategoricalColumn("region", region),
		dataset.NumericColumn("median_income", income),
	), nil
}

// WriteCSV writes a table with a header row; missing labels become empty cells
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	record := make([]string, t.ColumnCount())
	for i := 0; i < t.RowCount(); i++ {
		for j, col := range t.Columns {
			if col.IsCategorical() {
				record[j] = col.Labels[i]
			} else {
				record[j] = strconv.FormatFloat(col.Values[i], 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
