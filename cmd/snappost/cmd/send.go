package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tarm/serial"

	"github.com/snapcnc/snappost/stream"
)

var sendFlags struct {
	port string
	baud int
	spjs string
}

var sendCmd = &cobra.Command{
	Use:   "send <program.nc>",
	Short: "Stream a program to the machine",
	Long: `Streams a program line by line over a serial connection, waiting
for the controller to acknowledge each line. With --spjs the program is
relayed through a Serial Port JSON Server instead of a local port.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	f := sendCmd.Flags()
	f.StringVar(&sendFlags.port, "port", "/dev/ttyUSB0", "serial port path, or SPJS port name")
	f.IntVar(&sendFlags.baud, "baud", stream.DefaultBaud, "serial baud rate")
	f.StringVar(&sendFlags.spjs, "spjs", "", "SPJS websocket URL (e.g. ws://localhost:8989/ws)")
}

func runSend(cmd *cobra.Command, args []string) error {
	prog, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer prog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sendFlags.spjs != "" {
		return sendSPJS(ctx, prog)
	}

	port, err := serial.OpenPort(&serial.Config{Name: sendFlags.port, Baud: sendFlags.baud})
	if err != nil {
		return fmt.Errorf("open port: %w", err)
	}
	conn := stream.NewConn(port, slog.Default())
	defer conn.Close()

	n, err := conn.SendProgram(ctx, prog, func(line string, n int) {
		slog.Debug("acknowledged", "n", n, "line", line)
	})
	if err != nil {
		return fmt.Errorf("after %d lines: %w", n, err)
	}
	slog.Info("program sent", "lines", n, "port", sendFlags.port)
	return nil
}

func sendSPJS(ctx context.Context, prog *os.File) error {
	sp := stream.NewSPJS(sendFlags.spjs, slog.Default())
	port := stream.NewPort(sp, sendFlags.port, sendFlags.baud)
	port.Open()

	n, err := port.SendProgram(ctx, prog, func(sent, total int) {
		slog.Info("progress", "sent", sent, "total", total)
	})
	if err != nil {
		return fmt.Errorf("after %d lines: %w", n, err)
	}
	slog.Info("program sent", "lines", n, "port", sendFlags.port)
	return nil
}
