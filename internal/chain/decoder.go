package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/nevasik7/alerting/logger"
)

var (
	// log from a known contract whose topic0 matches no schema entry
	ErrUnknownEvent = errors.New("unknown event topic")
)

type specKey struct {
	role Role
	id   common.Hash
}

// Maps (role, topic0) to the schema entry and unpacks topics + data into Args
type Decoder struct {
	log   logger.Logger
	specs map[specKey]*eventSpec
}

func NewDecoder(log logger.Logger) *Decoder {
	specs := make(map[specKey]*eventSpec, len(eventSpecs))
	for _, s := range eventSpecs {
		specs[specKey{role: s.Role, id: common.Hash(s.id)}] = s
	}
	return &Decoder{log: log, specs: specs}
}

// TopicFor returns topic0 for a known (role, event name); used by fixtures
func TopicFor(role Role, name string) (common.Hash, bool) {
	for _, s := range eventSpecs {
		if s.Role == role && s.Name == name {
			return common.Hash(s.id), true
		}
	}
	return common.Hash{}, false
}

func (d *Decoder) Decode(role Role, b *Block, lg *Log) (*Event, error) {
	if len(lg.Topics) == 0 {
		return nil, ErrUnknownEvent
	}

	spec, ok := d.specs[specKey{role: role, id: lg.Topics[0]}]
	if !ok {
		return nil, ErrUnknownEvent
	}

	if len(lg.Topics)-1 != len(spec.indexed) {
		return nil, fmt.Errorf("event %s: got %d indexed topics, want %d",
			spec.Name, len(lg.Topics)-1, len(spec.indexed))
	}

	args := make(Args, len(spec.Args))

	for i, a := range spec.indexed {
		topic := lg.Topics[i+1]
		switch a.Type {
		case "address":
			args[a.Name] = common.BytesToAddress(topic[12:])
		case "uint256":
			args[a.Name] = new(big.Int).SetBytes(topic[:])
		default:
			return nil, fmt.Errorf("event %s: unsupported indexed type %s", spec.Name, a.Type)
		}
	}

	if len(spec.data) > 0 {
		values, err := spec.data.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("event %s: unpack data: %w", spec.Name, err)
		}
		if len(values) != len(spec.data) {
			return nil, fmt.Errorf("event %s: got %d data values, want %d",
				spec.Name, len(values), len(spec.data))
		}
		for i, arg := range spec.data {
			args[arg.Name] = values[i]
		}
	}

	return &Event{
		Role:        role,
		Name:        spec.Name,
		Args:        args,
		TxHash:      lg.TxHash,
		LogIndex:    lg.Index,
		BlockNumber: b.Height,
		BlockTime:   b.Time,
	}, nil
}
