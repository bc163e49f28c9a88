// Package race implements the deterministic replay loop that pits contestants
// against each other over a historical candle range.
package race

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-race/internal/contestant"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ContestantEntry selects one strategy and its parameters in a run config.
type ContestantEntry struct {
	Kind contestant.Kind `yaml:"kind" json:"kind" jsonschema:"title=Kind,description=Strategy kind,enum=dca,enum=grid,enum=squad,enum=oracle" validate:"required"`
	// ID is optional; a UUID is assigned when empty.
	ID string `yaml:"id" json:"id" jsonschema:"title=ID,description=Stable contestant identifier"`
	// Params are strategy-specific and decoded by the contestant factory.
	Params map[string]any `yaml:"params" json:"params" jsonschema:"title=Params,description=Strategy-specific parameters"`
}

// Config describes one race run.
type Config struct {
	Symbol string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Traded pair symbol" validate:"required"`
	// Interval is the candle interval of the underlying stored data.
	Interval  marketdata.Interval `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Stored candle interval" validate:"required"`
	StartTime time.Time           `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Simulation start" validate:"required"`
	EndTime   time.Time           `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Simulation end (inclusive)" validate:"required"`
	// StepMinutes is the simulated time advanced per tick.
	StepMinutes int `yaml:"step_minutes" json:"step_minutes" jsonschema:"title=Step Minutes,description=Clock advance per tick in minutes,minimum=1" validate:"required,gt=0"`
	// InitialCapital funds every contestant identically.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital per contestant in USD,minimum=0" validate:"required,gt=0"`
	// SnapshotEvery takes a portfolio snapshot every N ticks. Zero or one
	// snapshots on every tick. Values above one thin the history below one
	// snapshot per tick, coarsening the Sharpe and drawdown inputs; the
	// default keeps the per-tick cadence.
	SnapshotEvery int               `yaml:"snapshot_every" json:"snapshot_every" jsonschema:"title=Snapshot Every,description=Snapshot cadence in ticks,default=1" validate:"gte=0"`
	Contestants   []ContestantEntry `yaml:"contestants" json:"contestants" jsonschema:"title=Contestants,description=Strategies entered into the race" validate:"dive"`
}

// Validate checks the configuration at the boundary, before any contestant is
// initialized.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid race configuration", err)
	}

	if !c.EndTime.After(c.StartTime) {
		return errors.Newf(errors.ErrCodeInvalidTimeRange, "end time %s is not after start time %s", c.EndTime.Format(time.RFC3339), c.StartTime.Format(time.RFC3339))
	}

	if _, err := marketdata.IntervalMinutes(c.Interval); err != nil {
		return err
	}

	return nil
}

// ParseConfig decodes and validates a YAML run configuration.
func ParseConfig(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse race configuration", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the run configuration.
func (c Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(marketdata.Interval("")) {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{"1m", "5m", "15m", "30m", "1h", "4h", "1d"},
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "race-config"
	schema.Description = "Configuration schema for a race run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON renders the configuration schema as indented JSON.
func (c Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
