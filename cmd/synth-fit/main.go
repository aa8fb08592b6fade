package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/renderutil"
	"github.com/cwbudde/algo-synth/synth"
)

// knobDef describes one optimizable engine parameter and its search range.
type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

var knobs = []knobDef{
	{Name: "attack", Min: 0.001, Max: 1.0},
	{Name: "decay", Min: 0.001, Max: 1.5},
	{Name: "sustain", Min: 0.0, Max: 1.0},
	{Name: "release", Min: 0.01, Max: 2.0},
	{Name: "drift_amount", Min: 0.0, Max: 10.0},
}

// report is the JSON summary written to the -report path.
type report struct {
	Reference  string             `json:"reference"`
	Frequency  float64            `json:"frequency"`
	Evals      int                `json:"evals"`
	BestScore  float64            `json:"best_score"`
	BestKnobs  map[string]float64 `json:"best_knobs"`
	ElapsedSec float64            `json:"elapsed_sec"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV of a single note (required)")
	freq := flag.Float64("freq", 0, "Note frequency in Hz (0 = estimate from the reference)")
	waveform := flag.String("waveform", "sine", "Waveform used during fitting")
	holdTime := flag.Float64("hold", 0.3, "Seconds the note is held before release")
	sampleRate := flag.Int("sample-rate", 48000, "Fitting sample rate in Hz")
	pop := flag.Int("pop", 12, "Mayfly population size")
	maxEvals := flag.Int("max-evals", 400, "Objective evaluation budget")
	seed := flag.Int64("seed", 1, "Optimizer random seed")
	reportPath := flag.String("report", "fit-report.json", "Output report JSON path")
	flag.Parse()

	if *referencePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: synth-fit -reference note.wav [flags]")
		os.Exit(1)
	}

	ref, refRate, err := renderutil.ReadWAVMono(*referencePath)
	if err != nil {
		die("read reference: %v", err)
	}
	ref, err = renderutil.ResampleIfNeeded(ref, refRate, *sampleRate)
	if err != nil {
		die("resample reference: %v", err)
	}
	if len(ref) < *sampleRate/10 {
		die("reference too short: %d frames", len(ref))
	}

	frequency := *freq
	if frequency <= 0 {
		frequency = analysis.EstimateFundamental(ref, float64(*sampleRate))
		if frequency <= 0 {
			die("could not estimate the reference fundamental; pass -freq")
		}
		fmt.Printf("Estimated fundamental: %.2f Hz\n", frequency)
	}

	refEnv := analysis.RMSEnvelope(ref, 256, 128)
	hopSec := 128.0 / float64(*sampleRate)
	refDecay := analysis.DecaySlopeDBPerS(refEnv, hopSec)

	start := time.Now()
	evals := 0
	best := math.Inf(1)
	bestVals := make([]float64, len(knobs))

	objective := func(pos []float64) float64 {
		evals++
		vals := fromNormalized(pos)
		score := scoreCandidate(vals, frequency, *waveform, *holdTime, *sampleRate, len(ref), refEnv, refDecay, hopSec)
		if score < best {
			best = score
			copy(bestVals, vals)
			fmt.Printf("Improved eval=%d score=%.4f attack=%.3f decay=%.3f sustain=%.2f release=%.3f drift=%.1f\n",
				evals, score, vals[0], vals[1], vals[2], vals[3], vals[4])
		}
		return score
	}

	rounds := 0
	for evals < *maxEvals {
		rounds++
		remaining := *maxEvals - evals
		iters := remaining / (2 * (*pop))
		if iters < 1 {
			iters = 1
		}

		cfg := mayfly.NewDefaultConfig()
		cfg.ProblemSize = len(knobs)
		cfg.LowerBound = 0.0
		cfg.UpperBound = 1.0
		cfg.MaxIterations = iters
		cfg.NPop = *pop
		cfg.NPopF = *pop
		cfg.NC = 2 * (*pop)
		cfg.NM = maxInt(1, int(math.Round(0.05*float64(*pop))))
		cfg.Rand = rand.New(rand.NewSource(*seed + int64(rounds)*7919))
		cfg.ObjectiveFunc = objective

		if _, err := runMayfly(cfg); err != nil {
			die("optimizer: %v", err)
		}
	}

	knobOut := make(map[string]float64, len(knobs))
	for i, d := range knobs {
		knobOut[d.Name] = bestVals[i]
	}
	rep := report{
		Reference:  *referencePath,
		Frequency:  frequency,
		Evals:      evals,
		BestScore:  best,
		BestKnobs:  knobOut,
		ElapsedSec: time.Since(start).Seconds(),
	}
	b, err := json.MarshalIndent(&rep, "", "  ")
	if err != nil {
		die("encode report: %v", err)
	}
	if err := os.WriteFile(*reportPath, b, 0o644); err != nil {
		die("write report: %v", err)
	}

	fmt.Printf("Done: %d evals, best score %.4f -> %s\n", evals, best, *reportPath)
}

// scoreCandidate renders a note with the candidate parameters and measures
// the envelope distance to the reference.
func scoreCandidate(
	vals []float64,
	frequency float64,
	waveform string,
	holdTime float64,
	sampleRate int,
	refFrames int,
	refEnv []float64,
	refDecay float64,
	hopSec float64,
) float64 {
	engine := synth.NewEngine(float32(sampleRate))
	engine.SetWaveform(synth.ParseWaveform(waveform))
	engine.UpdateADSR(float32(vals[0]), float32(vals[1]), float32(vals[2]), float32(vals[3]))
	// Jitter stays off so repeated evaluations of one candidate agree.
	engine.SetDrift(0.35, float32(vals[4]), 0)

	engine.TriggerNote(float32(frequency))
	releaseFrame := int(holdTime * float64(sampleRate))

	mono := make([]float64, refFrames)
	for i := 0; i < refFrames; i++ {
		if i == releaseFrame {
			engine.TriggerNoteOff(float32(frequency))
		}
		left, right := engine.NextSample()
		mono[i] = (float64(left) + float64(right)) * 0.5
	}

	candEnv := analysis.RMSEnvelope(mono, 256, 128)
	n := len(refEnv)
	if len(candEnv) < n {
		n = len(candEnv)
	}
	if n == 0 {
		return 1e6
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := analysis.LinToDB(refEnv[i]) - analysis.LinToDB(candEnv[i])
		sum += d * d
	}
	envRMSE := math.Sqrt(sum / float64(n))

	score := envRMSE
	candDecay := analysis.DecaySlopeDBPerS(candEnv, hopSec)
	if !math.IsNaN(refDecay) && !math.IsNaN(candDecay) {
		score += 0.25 * math.Abs(refDecay-candDecay)
	}
	return score
}

func fromNormalized(pos []float64) []float64 {
	vals := make([]float64, len(knobs))
	for i := range knobs {
		x := pos[i]
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		vals[i] = knobs[i].Min + x*(knobs[i].Max-knobs[i].Min)
	}
	return vals
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
