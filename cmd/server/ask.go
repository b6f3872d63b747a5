package main

import (
	"encoding/json"
	"strings"

	"concierge/internal/model"

	"github.com/spf13/cobra"
)

var (
	askTerminal string
	askGate     string
	askTransit  bool
	askMinutes  int
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer one query and print the response as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askTerminal, "terminal", "", "terminal code hint, e.g. SIN-T3")
	askCmd.Flags().StringVar(&askGate, "gate", "", "gate hint, e.g. B12")
	askCmd.Flags().BoolVar(&askTransit, "transit", false, "traveller is in transit")
	askCmd.Flags().IntVar(&askMinutes, "minutes", 0, "minutes until departure, if known")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	chat, err := a.chatService(cmd)
	if err != nil {
		return err
	}
	defer chat.Wait()

	req := &model.ChatRequest{
		Query: strings.Join(args, " "),
		Context: &model.ChatContext{
			Terminal:         askTerminal,
			Gate:             askGate,
			AvailableMinutes: askMinutes,
		},
	}
	if cmd.Flags().Changed("transit") {
		req.Context.IsTransit = &askTransit
	}

	resp, err := chat.Chat(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
