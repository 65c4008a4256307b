// Command geomag reads a RM3100 geomagnetic sensor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cgxeiji/geomag"
	"github.com/cgxeiji/geomag/axis"
	"github.com/cgxeiji/geomag/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geomag",
	Short: "read a RM3100 geomagnetic sensor",
	Long: `geomag reads a RM3100 geomagnetic sensor on the I²C bus.
Settings are taken, by order of priority, from:
1. command line flags
2. GEOMAG_* environment variables
3. the file given by --config or GEOMAG_CONFIG, else config.yaml in
   $HOME/.config/geomag, /etc/geomag or the current directory
`,
	SilenceUsage: true,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print the revision and configuration of the sensor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, _, err := open(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		dev, err := d.ToRM3100()
		if err != nil {
			return err
		}
		fmt.Printf("RM3100 rev.%#x detected on %s\n", d.RevID, dev)
		for _, name := range []string{"x", "y", "z"} {
			n, err := dev.CycleCount(name)
			if err != nil {
				return err
			}
			fmt.Printf("%s axis cycle count value: %d\n", name, n)
		}
		rate, err := dev.UpdateRate()
		if err != nil {
			return err
		}
		cont, err := dev.ContinuousMode()
		if err != nil {
			return err
		}
		fmt.Printf("update rate: %d (%v per conversion)\n", rate, dev.CycleTime())
		fmt.Printf("continuous mode: %v\n", cont)
		return nil
	},
}

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "run the built-in self-test",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, _, err := open(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.SelfTest()
		if err != nil {
			return err
		}
		fmt.Printf("self-test result: %v\tx=%v y=%v z=%v\n", res.OK(), res.X, res.Y, res.Z)
		if !res.OK() {
			return fmt.Errorf("self-test failed: %+v", res)
		}
		return nil
	},
}

var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "take a single measurement",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, opt, err := open(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		v, err := d.Measure(opt.Axes)
		if err != nil {
			return err
		}
		printField(v)
		return nil
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "print measurements in continuous mode",
	Long: `stream starts continuous measurement and prints every conversion
until interrupted or --count samples were read. On exit the running average
and the hard-iron offset estimated from the extremes are logged.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		count, _ := cmd.Flags().GetInt("count")

		d, opt, err := open(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Start(opt.Axes, opt.UpdateRate); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		n, err := stream(ctx, d, count, printField)
		lo, hi := d.Range()
		log.WithFields(log.Fields{
			"samples": n,
			"average": d.Averaged(),
			"min":     lo,
			"max":     hi,
			"offset":  d.Offset(),
		}).Info("stream stopped")
		return err
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "init create a configuration template",
	Long: `init create a configuration template.
If --print flag is present, the configuration will be printed to stdout.
Otherwise it is saved to --output, $HOME/.config/geomag/config.yaml by default.
An existing file is only replaced when --yes / -y is present.
`,
	Example: `  geomag init --print
  geomag init -o /path/to/config.yaml -y`,
	RunE: config.InitCfg,
}

type sampler interface {
	Next() (axis.Vector, bool, error)
	CycleTime() time.Duration
}

// stream reads d every conversion cycle until ctx is done or count samples
// were read. A count of 0 reads forever.
func stream(ctx context.Context, d sampler, count int, out func(axis.Vector)) (int, error) {
	t := time.NewTicker(d.CycleTime())
	defer t.Stop()

	n := 0
	for count == 0 || n < count {
		select {
		case <-ctx.Done():
			return n, nil
		case <-t.C:
		}

		v, ok, err := d.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			continue
		}
		out(v)
		n++
	}
	return n, nil
}

func open(cmd *cobra.Command) (*geomag.Device, config.Opt, error) {
	desc := config.NewDesc()
	if err := desc.Parse(cmd); err != nil {
		return nil, config.Opt{}, err
	}
	desc.PostParse()

	d, err := geomag.New(desc.Opt.Options()...)
	if err != nil {
		return nil, config.Opt{}, err
	}
	return d, desc.Opt, nil
}

func printField(v axis.Vector) {
	fmt.Printf("X: %d; Y: %d; Z: %d; mag field strength: %.1f\n", v[0], v[1], v[2], v.Norm())
}

func main() {
	config.Flags(rootCmd)

	streamCmd.Flags().IntP("count", "n", 0, "number of samples to read, 0 for no limit")

	initCmd.Flags().Bool("print", false, "print config to stdout")
	initCmd.Flags().BoolP("yes", "y", false, "overwrite")
	initCmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output path")

	rootCmd.AddCommand(infoCmd, selfTestCmd, singleCmd, streamCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
