package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== AlgoKuCoin Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit trading knobs")
		fmt.Println("3) Edit strategy parameters")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper bot")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editTrading(reader, cfg)
		case "3":
			editStrategy(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Symbol: %s (%s, provider %s)\n", cfg.Exchange.Symbol, cfg.Exchange.Name, cfg.Exchange.Provider)
	fmt.Printf("Position size: %.4f at %dx leverage\n", cfg.Trading.PositionSize, cfg.Trading.Leverage)
	fmt.Printf("Candle history window: %d\n", cfg.Trading.MaxHistory)
	fmt.Printf("Per-trade notional cap: $%.2f\n", cfg.Risk.MaxNotionalPerTrade)
	p := cfg.Strategy.Params
	fmt.Printf("RSI: period %d, bands %.1f / %.1f\n", p.RSIPeriod, p.RSILower, p.RSIUpper)
	fmt.Printf("MACD: %d/%d signal %d\n", p.MACDFast, p.MACDSlow, p.MACDSignal)
	fmt.Printf("Signal buffer: %ds\n", p.SignalBufferSeconds)
	fmt.Printf("Paper starting cash: $%.2f\n", cfg.Paper.StartingCash)
}

func editTrading(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Trading ---")
	cfg.Exchange.Symbol = promptString(reader, "Symbol", cfg.Exchange.Symbol)
	cfg.Trading.PositionSize = promptFloat(reader, "Position size (contracts)", cfg.Trading.PositionSize)
	cfg.Trading.Leverage = promptInt(reader, "Leverage", cfg.Trading.Leverage)
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (USD, 0 = off)", cfg.Risk.MaxNotionalPerTrade)
	cfg.Paper.StartingCash = promptFloat(reader, "Paper starting cash", cfg.Paper.StartingCash)
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	p := &cfg.Strategy.Params
	p.RSIPeriod = promptInt(reader, "RSI period", p.RSIPeriod)
	p.RSILower = promptFloat(reader, "RSI lower band", p.RSILower)
	p.RSIUpper = promptFloat(reader, "RSI upper band", p.RSIUpper)
	p.MACDFast = promptInt(reader, "MACD fast span", p.MACDFast)
	p.MACDSlow = promptInt(reader, "MACD slow span", p.MACDSlow)
	p.MACDSignal = promptInt(reader, "MACD signal span", p.MACDSignal)
	p.SignalBufferSeconds = promptInt(reader, "Signal buffer (seconds)", p.SignalBufferSeconds)
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
