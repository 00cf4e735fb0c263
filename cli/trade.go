package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
	"aptos-swap/internal/rpc"
	"aptos-swap/internal/service"
	"aptos-swap/internal/ui/tablewriter"
)

// PositionsCmd 列出钱包持有的全部资产，未指定钱包时使用默认钱包
var PositionsCmd = &cli.Command{
	Name:      "positions",
	Usage:     "查询钱包持仓",
	ArgsUsage: "[walletID]",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		var (
			w   *models.Wallet
			err error
		)
		if cctx.Args().Present() {
			id, perr := idArg(cctx, 0, "walletID")
			if perr != nil {
				return perr
			}
			w, err = client.Ledger.GetWalletByID(cctx.Context, id, user.ID)
		} else {
			w, err = client.Ledger.GetDefaultWallet(cctx.Context, user.ID)
		}
		if err != nil {
			return err
		}
		addr, err := types.ParseAddress(w.Address)
		if err != nil {
			return err
		}

		positions, err := client.Gateway.ListPositions(cctx.Context, addr)
		if err != nil {
			return xerrors.Errorf("list positions of %s: %w", w.Address, err)
		}

		tw := tablewriter.New(
			tablewriter.Col("Symbol"),
			tablewriter.Col("Name"),
			tablewriter.Col("Amount", tablewriter.RightAlign()),
			tablewriter.Col("Asset"))
		for _, p := range positions {
			tw.Write(map[string]interface{}{
				"Symbol": p.Symbol,
				"Name":   p.Name,
				"Amount": types.FormatUnits(p.Amount, p.Decimals),
				"Asset":  p.AssetType,
			})
		}
		return tw.Flush(os.Stdout)
	}),
}

// CoinCmd 解析并缓存代币元数据，输出其 ID
var CoinCmd = &cli.Command{
	Name:      "coin",
	Usage:     "查询代币信息",
	ArgsUsage: "[coinType]",
	Action: withClient(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		if !cctx.Args().Present() {
			return fmt.Errorf("must specify coin type")
		}

		coin, err := client.Coins.GetOrCreateCachedCoin(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		fmt.Printf("ID:       %d\n", coin.ID)
		fmt.Printf("Address:  %s\n", coin.Address)
		fmt.Printf("Name:     %s\n", coin.Name)
		fmt.Printf("Symbol:   %s\n", coin.Symbol)
		fmt.Printf("Decimals: %d\n", coin.Decimals)
		return nil
	}),
}

// QuoteCmd 询价，金额为输入代币的十进制数量
var QuoteCmd = &cli.Command{
	Name:      "quote",
	Usage:     "查询兑换报价",
	ArgsUsage: "[fromCoin] [toCoin] [amount]",
	Action: withClient(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		if cctx.Args().Len() != 3 {
			return fmt.Errorf("expected 3 arguments, got %d", cctx.Args().Len())
		}

		from, err := client.Coins.GetOrCreateCachedCoin(cctx.Context, cctx.Args().Get(0))
		if err != nil {
			return err
		}
		to, err := client.Coins.GetOrCreateCachedCoin(cctx.Context, cctx.Args().Get(1))
		if err != nil {
			return err
		}
		amt, err := decimal.NewFromString(cctx.Args().Get(2))
		if err != nil {
			return fmt.Errorf("failed to parse amount: %w", err)
		}
		in, err := types.ToBaseUnits(amt, from.Decimals)
		if err != nil {
			return err
		}

		out, err := client.Swap.Quote(cctx.Context, from.Address, to.Address, in)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s -> %s %s\n",
			types.FormatUnits(in, from.Decimals), from.Symbol,
			types.FormatUnits(out, to.Decimals), to.Symbol)
		return nil
	}),
}

// BuyCmd 用 APT 买入代币
var BuyCmd = &cli.Command{
	Name:      "buy",
	Usage:     "用 APT 买入代币",
	ArgsUsage: "[walletID] [coinID] [amountAPT]",
	Action: withService(func(cctx *cli.Context) error {
		walletID, coinID, err := tradeArgs(cctx)
		if err != nil {
			return err
		}
		return runTrade(cctx, &service.Payload{
			Type:     service.RequestTypeBuy,
			UserID:   userFrom(cctx).ID,
			WalletID: walletID,
			CoinID:   coinID,
			Amount:   cctx.Args().Get(2),
		})
	}),
}

// SellCmd 按余额百分比卖出代币换回 APT
var SellCmd = &cli.Command{
	Name:      "sell",
	Usage:     "按比例卖出代币",
	ArgsUsage: "[walletID] [coinID] [percent]",
	Action: withService(func(cctx *cli.Context) error {
		walletID, coinID, err := tradeArgs(cctx)
		if err != nil {
			return err
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(cctx.Args().Get(2), "%"))
		if err != nil {
			return fmt.Errorf("invalid percent %q", cctx.Args().Get(2))
		}
		return runTrade(cctx, &service.Payload{
			Type:       service.RequestTypeSell,
			UserID:     userFrom(cctx).ID,
			WalletID:   walletID,
			CoinID:     coinID,
			Percentage: pct,
		})
	}),
}

func tradeArgs(cctx *cli.Context) (walletID, coinID uint, err error) {
	if cctx.Args().Len() != 3 {
		return 0, 0, fmt.Errorf("expected 3 arguments, got %d", cctx.Args().Len())
	}
	if walletID, err = idArg(cctx, 0, "walletID"); err != nil {
		return 0, 0, err
	}
	if coinID, err = idArg(cctx, 1, "coinID"); err != nil {
		return 0, 0, err
	}
	return walletID, coinID, nil
}

func runTrade(cctx *cli.Context, req *service.Payload) error {
	res, err := serviceFrom(cctx).Swap.Execute(cctx.Context, req)
	if res != nil && res.Trade != nil {
		printTrade(res.Trade)
	}
	if err != nil {
		printFailure(err)
		return err
	}
	return nil
}

func printTrade(r *service.TradeReport) {
	inSym, outSym := "APT", r.Coin.Symbol
	if r.Side == service.SideSell {
		inSym, outSym = r.Coin.Symbol, "APT"
	}

	fmt.Printf("Operation: %s\n", r.OperationID)
	fmt.Printf("Wallet:    %d (%s)\n", r.WalletID, r.WalletAddress)
	fmt.Printf("In:        %s %s\n", types.FormatUnits(r.AmountIn, r.InputDecimals()), inSym)
	if r.QuotedOut.Int != nil {
		fmt.Printf("Quoted:    %s %s (min %s)\n",
			types.FormatUnits(r.QuotedOut, r.OutputDecimals()), outSym,
			types.FormatUnits(r.MinOut, r.OutputDecimals()))
	}
	if r.RegisterHash != "" {
		fmt.Printf("Register:  %s\n", r.RegisterHash)
	}
	if r.SwapHash != "" {
		fmt.Printf("Swap tx:   %s\n", r.SwapHash)
	}
	for _, w := range r.Warnings {
		color.Yellow("warning: %s", w)
	}
	if r.Success {
		color.Green("Received:  %s %s", types.FormatUnits(r.RealizedOut, r.OutputDecimals()), outSym)
	}
}

func printFailure(err error) {
	var (
		sub     *service.SubmissionError
		onChain *service.OnChainFailure
	)
	switch {
	case errors.Is(err, service.ErrValidation):
		color.Red("请求无效: %v", err)
	case errors.As(err, &onChain):
		color.Red("交易 %s 在链上执行失败: %s", onChain.Hash, onChain.VMStatus)
	case errors.As(err, &sub) && sub.Hash != "":
		color.Yellow("交易 %s 已提交但结果未知，请稍后在链上确认", sub.Hash)
	case rpc.IsAPIError(err):
		color.Yellow("节点返回错误，可稍后重试: %v", err)
	default:
		color.Red("失败: %v", err)
	}
}
