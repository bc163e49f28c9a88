package contestant

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/oracle"
	"github.com/rxtech-lab/argo-race/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Kind selects a contestant strategy.
type Kind string

const (
	KindDCA    Kind = "dca"
	KindGrid   Kind = "grid"
	KindSquad  Kind = "squad"
	KindOracle Kind = "oracle"
)

// Dependencies carries the shared collaborators contestants are built with.
// Oracle may be nil unless an oracle-driven contestant is requested.
type Dependencies struct {
	Source marketdata.Source
	Oracle oracle.Oracle
	Logger *logger.Logger
}

// New builds a contestant of the given kind from untyped strategy parameters,
// as they appear in a run configuration file. Unknown kinds are rejected with
// ErrCodeUnsupportedContestant. An empty id is replaced with a fresh UUID.
func New(kind Kind, id string, symbol string, params map[string]any, deps Dependencies) (Contestant, error) {
	if id == "" {
		id = uuid.New().String()
	}

	switch kind {
	case KindDCA:
		config := DCAConfig{}
		if err := decodeParams(params, &config); err != nil {
			return nil, err
		}

		return NewDCA(id, symbol, config, deps.Source, deps.Logger)
	case KindGrid:
		config := DefaultGridConfig()
		if err := decodeParams(params, &config); err != nil {
			return nil, err
		}

		return NewGrid(id, symbol, config, deps.Source, deps.Logger)
	case KindSquad:
		config := DefaultSquadConfig()
		if err := decodeParams(params, &config); err != nil {
			return nil, err
		}

		return NewSquad(id, symbol, config, deps.Source, deps.Logger)
	case KindOracle:
		config := DefaultOracleSoloConfig()
		if err := decodeParams(params, &config); err != nil {
			return nil, err
		}

		return NewOracleSolo(id, symbol, config, deps.Source, deps.Oracle, deps.Logger)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedContestant, "unsupported contestant kind: %s", kind)
	}
}

// decodeParams maps loosely-typed config parameters onto a typed strategy
// config through a YAML round trip, so file syntax and struct tags stay
// consistent with the rest of the configuration surface.
func decodeParams(params map[string]any, target any) error {
	if len(params) == 0 {
		return nil
	}

	raw, err := yaml.Marshal(params)
	if err != nil {
		return errors.Wrap(errors.ErrCodeContestantConfig, "failed to encode strategy params", err)
	}

	if err := yaml.Unmarshal(raw, target); err != nil {
		return errors.Wrap(errors.ErrCodeContestantConfig, "failed to decode strategy params", err)
	}

	return nil
}
