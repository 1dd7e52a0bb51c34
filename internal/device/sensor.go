package device

import (
	"math"
	"math/rand"
)

// Sample is one raw measurement before the server rounds it.
type Sample struct {
	Temperature float64
	Humidity    float64
	Sound       float64
}

// Sensor simulates the nursery sensors with a bounded random walk.
type Sensor struct {
	rnd  *rand.Rand
	last Sample
}

func NewSensor(seed int64) *Sensor {
	return &Sensor{
		rnd:  rand.New(rand.NewSource(seed)),
		last: Sample{Temperature: 21, Humidity: 50, Sound: 35},
	}
}

func (s *Sensor) Next() Sample {
	s.last = Sample{
		Temperature: walk(s.rnd, s.last.Temperature, 0.3, 16, 30), // °C
		Humidity:    walk(s.rnd, s.last.Humidity, 1.5, 20, 80),    // %
		Sound:       walk(s.rnd, s.last.Sound, 4, 20, 90),         // dB
	}
	return s.last
}

func walk(rnd *rand.Rand, v, step, lo, hi float64) float64 {
	v += (rnd.Float64()*2 - 1) * step
	return math.Max(lo, math.Min(hi, v))
}
