package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nftPool/internal/config"
	"nftPool/internal/filter"
)

func newFilterCmd() *cobra.Command {
	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Build and check token-ID filters",
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the filter root and encoded id set",
		RunE:  runFilterBuild,
	}
	addIDFlags(buildCmd)
	filterCmd.AddCommand(buildCmd)

	proofCmd := &cobra.Command{
		Use:   "proof",
		Short: "Generate a multiproof for a subset of the id set",
		RunE:  runFilterProof,
	}
	addIDFlags(proofCmd)
	proofCmd.Flags().StringSlice("prove", nil, "ids to prove (comma-separated)")
	filterCmd.AddCommand(proofCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify ids against a root with a multiproof",
		RunE:  runFilterVerify,
	}
	verifyCmd.Flags().String("root", "", "filter root")
	verifyCmd.Flags().StringSlice("ids", nil, "ids in any order (comma-separated)")
	verifyCmd.Flags().StringSlice("proof", nil, "proof hashes (comma-separated)")
	verifyCmd.Flags().StringSlice("flags", nil, "proof flags (comma-separated true/false)")
	filterCmd.AddCommand(verifyCmd)

	return filterCmd
}

func addIDFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("ids", nil, "id set (comma-separated)")
	cmd.Flags().String("ids-file", "", "file with one id per line")
}

type filterView struct {
	Root    string   `json:"root"`
	Encoded string   `json:"encoded,omitempty"`
	IDs     []string `json:"ids"`
	Proof   []string `json:"proof,omitempty"`
	Flags   []bool   `json:"flags,omitempty"`
	Valid   *bool    `json:"valid,omitempty"`
}

func loadFilter(cmd *cobra.Command) (config.FilterConfig, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFilter(cfgFile, cmd.Flags())
	if err != nil {
		return config.FilterConfig{}, nil, err
	}
	logFile, _ := cmd.Flags().GetString("log-file")
	logger, err := newLogger(cfg.LogLevel, logFile)
	if err != nil {
		return config.FilterConfig{}, nil, err
	}
	return cfg, logger, nil
}

func loadTree(cfg config.FilterConfig) (*filter.Tree, error) {
	raw := append([]string(nil), cfg.IDs...)
	if cfg.IDsFile != "" {
		fromFile, err := readIDsFile(cfg.IDsFile)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fromFile...)
	}
	parsed, err := config.ParseIDs(raw)
	if err != nil {
		return nil, err
	}
	return filter.NewTree(filter.BuildSet(parsed))
}

func runFilterBuild(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadFilter(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tree, err := loadTree(cfg)
	if err != nil {
		return err
	}
	f, err := tree.Filter()
	if err != nil {
		return err
	}
	logger.Info("filter built", zap.String("root", f.Root.Hex()), zap.Int("ids", len(tree.IDs())))
	return printJSON(filterView{
		Root:    f.Root.Hex(),
		Encoded: hexutil.Encode(f.Encoded),
		IDs:     ids(tree.IDs()),
	})
}

func runFilterProof(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadFilter(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tree, err := loadTree(cfg)
	if err != nil {
		return err
	}
	subset, err := config.ParseIDs(cfg.Prove)
	if err != nil {
		return err
	}
	if len(subset) == 0 {
		return fmt.Errorf("prove list is required")
	}
	mp, err := tree.MultiProof(subset)
	if err != nil {
		return err
	}

	proof := make([]string, len(mp.Proof))
	for i, h := range mp.Proof {
		proof[i] = h.Hex()
	}
	return printJSON(filterView{
		Root:  tree.Root().Hex(),
		IDs:   ids(mp.IDs),
		Proof: proof,
		Flags: mp.Flags,
	})
}

func runFilterVerify(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadFilter(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rootBytes, err := hexutil.Decode(cfg.Root)
	if err != nil || len(rootBytes) != common.HashLength {
		return fmt.Errorf("invalid root: %s", cfg.Root)
	}
	root := common.BytesToHash(rootBytes)

	items, err := config.ParseIDs(cfg.IDs)
	if err != nil {
		return err
	}
	proof := make([]common.Hash, 0, len(cfg.Proof))
	for _, raw := range cfg.Proof {
		b, err := hexutil.Decode(raw)
		if err != nil || len(b) != common.HashLength {
			return fmt.Errorf("invalid proof hash: %s", raw)
		}
		proof = append(proof, common.BytesToHash(b))
	}
	flags := make([]bool, 0, len(cfg.Flags))
	for _, raw := range cfg.Flags {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid flag: %s", raw)
		}
		flags = append(flags, flag)
	}

	var valid bool
	if len(items) == 1 && len(flags) == 0 {
		valid = filter.AcceptsSingle(items[0], proof, root)
	} else {
		valid = filter.AcceptsBatch(filter.SortForProof(items), proof, flags, root)
	}
	logger.Debug("filter verify", zap.Int("ids", len(items)), zap.Bool("valid", valid))
	return printJSON(filterView{Root: root.Hex(), IDs: ids(items), Valid: &valid})
}

func readIDsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ids file: %w", err)
	}
	defer file.Close()

	var out []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		for _, part := range strings.Split(scanner.Text(), ",") {
			if part = strings.TrimSpace(part); part != "" && !strings.HasPrefix(part, "#") {
				out = append(out, part)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}
	return out, nil
}

