package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/service"
)

// WithdrawCmd 提现命令
// 将钱包中的 APT 或指定代币转出到外部地址
var WithdrawCmd = &cli.Command{
	Name:      "withdraw",
	Usage:     "Send funds to an external account",
	ArgsUsage: "[walletID] [recipient] [amount]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "coin",
			Usage: "coin type to transfer, APT when omitted",
		},
	},
	Action: withService(func(cctx *cli.Context) error {
		if cctx.Args().Len() != 3 {
			return fmt.Errorf("expected 3 arguments, got %d", cctx.Args().Len())
		}
		walletID, err := idArg(cctx, 0, "walletID")
		if err != nil {
			return err
		}

		// 创建提现请求
		data := &service.Payload{
			Type:      service.RequestTypeWithdraw,
			UserID:    userFrom(cctx).ID,
			WalletID:  walletID,
			Recipient: cctx.Args().Get(1),
			Amount:    cctx.Args().Get(2),
			CoinType:  cctx.String("coin"),
		}
		res, err := serviceFrom(cctx).Swap.Execute(cctx.Context, data)
		if res != nil && res.Withdraw != nil {
			r := res.Withdraw
			fmt.Printf("Operation: %s\n", r.OperationID)
			fmt.Printf("From:      %s\n", r.WalletAddress)
			fmt.Printf("To:        %s\n", r.Recipient)
			fmt.Printf("Amount:    %s %s\n", types.FormatUnits(r.Amount, r.Decimals), r.Symbol)
			if r.Hash != "" {
				fmt.Printf("Tx:        %s\n", r.Hash)
			}
			if r.Success {
				color.Green("转账成功")
			}
		}
		if err != nil {
			printFailure(err)
			return err
		}
		return nil
	}),
}
