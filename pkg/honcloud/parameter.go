package honcloud

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrReadOnlyParameter = errors.New("parameter is read only")

// Parameter is a single appliance setting as reported by the cloud.
// Writes only change the local view; SendCommand ships the values.
type Parameter interface {
	Key() string
	Value() string
	SetValue(value string) error
}

type FixedParameter struct {
	key   string
	value string
}

func NewFixedParameter(key, value string) *FixedParameter {
	return &FixedParameter{key: key, value: value}
}

func (p *FixedParameter) Key() string {
	return p.key
}

func (p *FixedParameter) Value() string {
	return p.value
}

func (p *FixedParameter) SetValue(string) error {
	return ErrReadOnlyParameter
}

type EnumParameter struct {
	key    string
	value  string
	values []string
}

func NewEnumParameter(key, value string, values []string) *EnumParameter {
	return &EnumParameter{key: key, value: value, values: values}
}

func (p *EnumParameter) Key() string {
	return p.key
}

func (p *EnumParameter) Value() string {
	return p.value
}

func (p *EnumParameter) Values() []string {
	return p.values
}

func (p *EnumParameter) SetValue(value string) error {
	for _, v := range p.values {
		if v == value {
			p.value = value
			return nil
		}
	}
	return fmt.Errorf("value %s not allowed for parameter %s", value, p.key)
}

type RangeParameter struct {
	key   string
	value float64
	min   float64
	max   float64
	step  float64
}

func NewRangeParameter(key string, value, min, max, step float64) *RangeParameter {
	if step <= 0 {
		step = 1
	}
	return &RangeParameter{key: key, value: value, min: min, max: max, step: step}
}

func (p *RangeParameter) Key() string {
	return p.key
}

func (p *RangeParameter) Value() string {
	return strconv.FormatFloat(p.value, 'f', -1, 64)
}

func (p *RangeParameter) Min() float64 {
	return p.min
}

func (p *RangeParameter) Max() float64 {
	return p.max
}

func (p *RangeParameter) Step() float64 {
	return p.step
}

// Values enumerates the discrete steps between min and max.
func (p *RangeParameter) Values() []float64 {
	var values []float64
	for v := p.min; v <= p.max; v += p.step {
		values = append(values, v)
	}
	return values
}

func (p *RangeParameter) SetValue(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.key, err)
	}
	if f < p.min || f > p.max {
		return fmt.Errorf("value %s out of range [%v, %v] for parameter %s", value, p.min, p.max, p.key)
	}
	p.value = f
	return nil
}
