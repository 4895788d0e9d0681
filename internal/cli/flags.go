package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// ConfigFlag names the persistent flag that points at a config file.
const ConfigFlag = "config"

// ConfigPathFromArgs extracts --config from raw arguments without knowing
// the rest of the command tree, so configuration can be loaded before the
// services the commands need are wired.
func ConfigPathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--"+ConfigFlag+"="); ok {
			return v
		}
		if a == "--"+ConfigFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// decimalValue adapts decimal.Decimal to pflag.Value.
type decimalValue struct {
	d *decimal.Decimal
}

var _ pflag.Value = (*decimalValue)(nil)

func newDecimalValue(def string, p *decimal.Decimal) *decimalValue {
	*p = decimal.RequireFromString(def)
	return &decimalValue{d: p}
}

func (v *decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a decimal: %q", s)
	}
	*v.d = d
	return nil
}

func (v *decimalValue) Type() string { return "decimal" }

// periodValue parses YYYY-MM into a domain.Period.
type periodValue struct {
	p *domain.Period
}

var _ pflag.Value = (*periodValue)(nil)

func (v *periodValue) String() string {
	if v.p == nil || v.p.Month == 0 {
		return ""
	}
	return v.p.String()
}

func (v *periodValue) Set(s string) error {
	p, err := parsePeriod(s)
	if err != nil {
		return err
	}
	*v.p = p
	return nil
}

func (v *periodValue) Type() string { return "YYYY-MM" }

func parsePeriod(s string) (domain.Period, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return domain.Period{}, fmt.Errorf("period %q must be YYYY-MM", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return domain.Period{}, fmt.Errorf("period %q must be YYYY-MM", s)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return domain.Period{}, fmt.Errorf("period %q must be YYYY-MM", s)
	}
	p := domain.Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return domain.Period{}, err
	}
	return p, nil
}

// parseCertNumber accepts "3" or "#3".
func parseCertNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("certification number %q must be a positive integer", s)
	}
	return n, nil
}
