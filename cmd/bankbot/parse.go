package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bankbot/internal/parsing"
	"bankbot/internal/types"
)

var parsePoint bool

var errUnreadable = errors.New("entity could not be read")

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Read entity annotations into slot values",
}

var parseTimeCmd = &cobra.Command{
	Use:   "time <entity.json>",
	Short: "Read a time entity as an interval (or an instant with --point)",
	Args:  cobra.ExactArgs(1),
	RunE:  parseTime,
}

var parseMoneyCmd = &cobra.Command{
	Use:   "money <entity.json>",
	Short: "Read an amount-of-money or number entity",
	Args:  cobra.ExactArgs(1),
	RunE:  parseMoney,
}

func readEntity(path string) (types.Entity, error) {
	var e types.Entity
	data, err := readInput(path)
	if err != nil {
		return e, fmt.Errorf("failed to read entity: %w", err)
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%s: failed to parse entity: %w", path, err)
	}
	return e, nil
}

func parseTime(cmd *cobra.Command, args []string) error {
	e, err := readEntity(args[0])
	if err != nil {
		return err
	}
	if parsePoint {
		p, ok := parsing.ParseTimePoint(e)
		if !ok {
			return fmt.Errorf("%w: %s", errUnreadable, args[0])
		}
		printSlots(p.Slots())
		return nil
	}
	i, ok := parsing.ParseTimeAsInterval(e)
	if !ok {
		return fmt.Errorf("%w: %s", errUnreadable, args[0])
	}
	printSlots(i.Slots())
	return nil
}

func parseMoney(cmd *cobra.Command, args []string) error {
	e, err := readEntity(args[0])
	if err != nil {
		return err
	}
	m, ok := parsing.ParseMoney(e)
	if !ok {
		return fmt.Errorf("%w: %s", errUnreadable, args[0])
	}
	printSlots(m.Slots())
	return nil
}

func printSlots(slots []types.SlotValue) {
	for _, sv := range slots {
		fmt.Printf("%s = %v\n", color.CyanString(sv.Name), sv.Value)
	}
}
