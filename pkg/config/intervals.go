package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/c9s/kfeed/pkg/types"
)

// Intervals accepts a single interval or a list, e.g. "1h" or [1m, 1h].
type Intervals []types.Interval

func (s *Intervals) decode(a interface{}) error {
	switch d := a.(type) {
	case string:
		*s = append(*s, types.Interval(d))

	case []interface{}:
		for _, de := range d {
			if err := s.decode(de); err != nil {
				return err
			}
		}

	default:
		return errors.Errorf("unexpected type %T for intervals: %+v", d, d)
	}

	return nil
}

func (s *Intervals) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var a interface{}
	if err := unmarshal(&a); err != nil {
		return err
	}

	*s = nil
	return s.decode(a)
}

func (s *Intervals) UnmarshalJSON(b []byte) error {
	var a interface{}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	*s = nil
	return s.decode(a)
}
