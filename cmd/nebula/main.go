package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dlmmedia/nebula/engine"
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/scene"
	"github.com/dlmmedia/nebula/engine/window"
	"github.com/dlmmedia/nebula/player"
)

var (
	variantName string
	titleFlag   string
	width       int
	height      int
	fpsCap      float64
	smoothing   float64
	volume      float64
	uncapped    bool
	noMSAA      bool
	mute        bool
	profile     bool
)

var rootCmd = &cobra.Command{
	Use:   "nebula [audio file]",
	Short: "Audio-reactive WebGPU visualizer",
	Long: `Nebula renders a real-time, audio-reactive scene driven by the spectrum
of a playing track. Supported formats: MP3, WAV, FLAC, OGG Vorbis.

Run without a file to watch the idle waveform.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&variantName, "variant", "pulse", "scene variant: pulse or orbit")
	rootCmd.Flags().StringVar(&titleFlag, "title", "", "override the displayed title")
	rootCmd.Flags().IntVar(&width, "width", 1280, "window width in pixels")
	rootCmd.Flags().IntVar(&height, "height", 720, "window height in pixels")
	rootCmd.Flags().Float64Var(&fpsCap, "fps", 0, "frame rate cap (0 = uncapped)")
	rootCmd.Flags().Float64Var(&smoothing, "smoothing", 0.2, "spectrum smoothing coefficient in (0, 1]")
	rootCmd.Flags().Float64Var(&volume, "volume", 0.8, "playback volume from 0 to 1")
	rootCmd.Flags().BoolVar(&uncapped, "uncapped", false, "present frames without vsync")
	rootCmd.Flags().BoolVar(&noMSAA, "no-msaa", false, "disable multisample anti-aliasing")
	rootCmd.Flags().BoolVar(&mute, "mute", false, "skip audio playback, render the idle scene")
	rootCmd.Flags().BoolVar(&profile, "profile", false, "log frame and memory statistics")
}

func parseVariant(name string) (scene.Variant, error) {
	switch strings.ToLower(name) {
	case "pulse":
		return scene.VariantPulse, nil
	case "orbit":
		return scene.VariantOrbit, nil
	default:
		return 0, fmt.Errorf("unknown variant %q (want pulse or orbit)", name)
	}
}

func run(cmd *cobra.Command, args []string) error {
	variant, err := parseVariant(variantName)
	if err != nil {
		return err
	}

	var trackPath string
	if len(args) == 1 {
		trackPath = args[0]
		if _, err := os.Stat(trackPath); err != nil {
			return fmt.Errorf("cannot open %s: %w", trackPath, err)
		}
	}

	title := titleFlag
	if title == "" && trackPath != "" {
		title = player.ReadMetadata(trackPath).DisplayTitle()
	}
	if title == "" {
		title = "NEBULA"
	}

	msaa := renderer.MSAA4x
	if noMSAA {
		msaa = renderer.MSAAOff
	}
	presentMode := renderer.PresentModeVSync
	if uncapped {
		presentMode = renderer.PresentModeUncapped
	}

	win := window.NewWindow(
		window.WithTitle("nebula - "+title),
		window.WithSize(width, height),
	)
	viz := scene.NewVisualizer(
		scene.WithVariant(variant),
		scene.WithDisplayTitle(title),
		scene.WithMSAA(msaa),
		scene.WithPresentMode(presentMode),
	)
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithVisualizer(viz),
		engine.WithProfiling(profile),
		engine.WithFrameLimit(fpsCap),
		engine.WithSmoothing(smoothing),
	)

	if trackPath != "" && !mute {
		p, err := player.Open(trackPath)
		if err != nil {
			return err
		}
		defer p.Close()
		p.SetVolume(volume)

		eng.SetAnalyser(p.Analyser())
		eng.SetPlaying(true)
		p.Play()

		go trackProgress(eng, p, title)
	}

	eng.Run()
	return nil
}

// trackProgress renders a terminal progress bar for the playing track and
// flips the engine back to the idle waveform when it ends.
func trackProgress(eng engine.Engine, p *player.Player, title string) {
	total := p.Duration()
	var bar *progressbar.ProgressBar
	if total > 0 {
		bar = progressbar.NewOptions64(total.Milliseconds(),
			progressbar.OptionSetDescription(title),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.Done():
			if bar != nil {
				bar.Finish()
			}
			eng.SetPlaying(false)
			return
		case <-ticker.C:
			if bar != nil {
				bar.Set64(p.Position().Milliseconds())
			}
		}
	}
}
