package config

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/viper"
)

const EnvPrefix = "CMPDRIFT"

// Settings are process wide knobs read from the environment, e.g.
// CMPDRIFT_VERBOSE=2 or CMPDRIFT_BOUNCES=10.
type Settings struct {
	Verbose     int
	Bounces     int     // reflections allowed before absorption, -1 for no limit
	MakeCharges float64 // fraction of carriers produced, the rest are thinned
	Seed        uint64
	Threads     int
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("verbose", 0)
	v.SetDefault("bounces", -1)
	v.SetDefault("makecharges", 1.)
	v.SetDefault("seed", 1)
	v.SetDefault("threads", runtime.NumCPU())
	return v
}

func LoadSettings() (Settings, error) {
	v := newViper()
	s := Settings{
		Verbose:     v.GetInt("verbose"),
		Bounces:     v.GetInt("bounces"),
		MakeCharges: v.GetFloat64("makecharges"),
		Seed:        v.GetUint64("seed"),
		Threads:     v.GetInt("threads"),
	}
	if s.MakeCharges <= 0 || s.MakeCharges > 1 {
		return s, fmt.Errorf("%s_MAKECHARGES must be in (0,1], got %g", EnvPrefix, s.MakeCharges)
	}
	if s.Threads < 1 {
		s.Threads = 1
	}
	return s, nil
}

func (s Settings) Print(w io.Writer) {
	fmt.Fprintf(w, "verbose:      %d\n", s.Verbose)
	if s.Bounces < 0 {
		fmt.Fprintf(w, "bounces:      unlimited\n")
	} else {
		fmt.Fprintf(w, "bounces:      %d\n", s.Bounces)
	}
	fmt.Fprintf(w, "make charges: %g\n", s.MakeCharges)
	fmt.Fprintf(w, "seed:         %d\n", s.Seed)
	fmt.Fprintf(w, "threads:      %d\n", s.Threads)
}
