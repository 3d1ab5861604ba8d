package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeUnit é a granularidade da janela do rate limit.
// A janela tem sempre a duração de uma unidade.
type TimeUnit string

const (
	Milliseconds TimeUnit = "MILLISECONDS"
	Seconds      TimeUnit = "SECONDS"
	Minutes      TimeUnit = "MINUTES"
	Hours        TimeUnit = "HOURS"
	Days         TimeUnit = "DAYS"
)

var unitDurations = map[TimeUnit]time.Duration{
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

// ParseTimeUnit aceita o nome da unidade no singular ou plural, em qualquer caixa.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if u != "" && !strings.HasSuffix(u, "S") {
		u += "S"
	}
	if _, ok := unitDurations[TimeUnit(u)]; !ok {
		return "", fmt.Errorf("%w: unknown time unit %q", ErrConfiguration, s)
	}
	return TimeUnit(u), nil
}

// Duration devolve a duração de uma unidade (0 para unidade desconhecida).
func (u TimeUnit) Duration() time.Duration {
	return unitDurations[u]
}
