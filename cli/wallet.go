package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"aptos-swap/internal/chain/framework"
	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
	"aptos-swap/internal/ui/tablewriter"
)

// WalletCmd 钱包管理命令
// 提供创建、列表、默认钱包、重命名、删除、余额查询等功能
var WalletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "钱包管理",

	Subcommands: []*cli.Command{
		walletNew,
		walletList,
		walletDefault,
		walletRename,
		walletBalance,
		walletDelete,
	},
}

// walletNew 生成新钱包
// 私钥明文只在此处输出一次
var walletNew = &cli.Command{
	Name:  "new",
	Usage: "生成新的 Ed25519 钱包",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		w, key, err := client.Ledger.CreateWallet(cctx.Context, user.ID)
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %d\n", w.ID)
		fmt.Printf("Address: %s\n", w.Address)
		fmt.Printf("Label:   %s\n", w.Label)
		fmt.Printf("Private key: %s\n", key)
		color.Yellow("请立即备份私钥，之后不会再次显示")
		return nil
	}),
}

// walletList 列出用户钱包及 APT 余额
var walletList = &cli.Command{
	Name:  "list",
	Usage: "列出钱包",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		wallets, err := client.Ledger.ListWallets(cctx.Context, user.ID)
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("ID", tablewriter.RightAlign()),
			tablewriter.Col("Label"),
			tablewriter.Col("Address"),
			tablewriter.Col("APT", tablewriter.RightAlign()),
			tablewriter.Col("Default"),
			tablewriter.NewLineCol("Error"))

		for _, w := range wallets {
			row := map[string]interface{}{
				"ID":      w.ID,
				"Label":   w.Label,
				"Address": w.Address,
			}
			if w.IsDefault {
				row["Default"] = "X"
			}
			addr, err := types.ParseAddress(w.Address)
			if err != nil {
				row["Error"] = err
				tw.Write(row)
				continue
			}
			bal, err := client.Gateway.GetBalance(cctx.Context, addr, framework.NativeCoin)
			if err != nil {
				row["Error"] = err
			} else {
				row["APT"] = types.FormatUnits(bal, framework.NativeCoinDecimals)
			}
			tw.Write(row)
		}

		return tw.Flush(os.Stdout)
	}),
}

var walletDefault = &cli.Command{
	Name:      "default",
	Usage:     "设置默认钱包，不带参数时显示当前默认钱包",
	ArgsUsage: "[walletID]",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		if !cctx.Args().Present() {
			w, err := client.Ledger.GetDefaultWallet(cctx.Context, user.ID)
			if err != nil {
				return err
			}
			fmt.Printf("%d %s %s\n", w.ID, w.Label, w.Address)
			return nil
		}

		id, err := idArg(cctx, 0, "walletID")
		if err != nil {
			return err
		}
		if err := client.Ledger.SetDefaultWallet(cctx.Context, id, user.ID); err != nil {
			return err
		}
		color.Green("默认钱包已设置为 %d", id)
		return nil
	}),
}

var walletRename = &cli.Command{
	Name:      "rename",
	Usage:     "修改钱包标签",
	ArgsUsage: "[walletID] [label]",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		id, err := idArg(cctx, 0, "walletID")
		if err != nil {
			return err
		}
		label := strings.Join(cctx.Args().Tail(), " ")
		if err := client.Ledger.RenameWallet(cctx.Context, id, user.ID, label); err != nil {
			return err
		}
		color.Green("钱包 %d 已重命名为 %q", id, strings.TrimSpace(label))
		return nil
	}),
}

// walletBalance 查询钱包余额
// 总是包含 APT，额外的币种按参数顺序并发查询
var walletBalance = &cli.Command{
	Name:      "balance",
	Usage:     "查询钱包余额",
	ArgsUsage: "[walletID] [coinType...]",
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		id, err := idArg(cctx, 0, "walletID")
		if err != nil {
			return err
		}
		w, err := client.Ledger.GetWalletByID(cctx.Context, id, user.ID)
		if err != nil {
			return err
		}
		addr, err := types.ParseAddress(w.Address)
		if err != nil {
			return err
		}

		coins := []*models.Coin{{Address: framework.NativeCoin, Symbol: framework.NativeCoinSymbol, Decimals: framework.NativeCoinDecimals}}
		for _, ct := range cctx.Args().Tail() {
			coin, err := client.Coins.GetOrCreateCachedCoin(cctx.Context, ct)
			if err != nil {
				return xerrors.Errorf("resolve %s: %w", ct, err)
			}
			coins = append(coins, coin)
		}
		coinTypes := make([]string, len(coins))
		for i, c := range coins {
			coinTypes[i] = c.Address
		}

		balances, err := client.Gateway.GetBalances(cctx.Context, addr, coinTypes...)
		if err != nil {
			return xerrors.Errorf("failed to get balance: %w", err)
		}

		fmt.Printf("Address: %s\n", w.Address)
		tw := tablewriter.New(
			tablewriter.Col("Symbol"),
			tablewriter.Col("Amount", tablewriter.RightAlign()),
			tablewriter.Col("Coin"))
		for i, c := range coins {
			tw.Write(map[string]interface{}{
				"Symbol": c.Symbol,
				"Amount": types.FormatUnits(balances[i], c.Decimals),
				"Coin":   c.Address,
			})
		}
		return tw.Flush(os.Stdout)
	}),
}

// walletDelete 删除钱包
var walletDelete = &cli.Command{
	Name:      "del",
	Usage:     "删除钱包",
	ArgsUsage: "[walletID]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "强制删除，不需要确认",
		},
	},
	Action: withService(func(cctx *cli.Context) error {
		client := serviceFrom(cctx)
		user := userFrom(cctx)

		id, err := idArg(cctx, 0, "walletID")
		if err != nil {
			return err
		}
		w, err := client.Ledger.GetWalletByID(cctx.Context, id, user.ID)
		if err != nil {
			return err
		}

		// 如果没有 --force 标志，请求确认
		if !cctx.Bool("force") {
			fmt.Printf("确定要删除钱包 %s 吗？链上资产不会转移，私钥将无法找回！\n", w.Address)
			fmt.Print("输入 'yes' 确认: ")
			reader := bufio.NewReader(os.Stdin)
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				fmt.Println("已取消删除操作")
				return nil
			}
		}

		if err := client.Ledger.DeleteWalletByID(cctx.Context, id, user.ID); err != nil {
			return xerrors.Errorf("删除钱包失败: %w", err)
		}
		color.Green("已成功删除钱包 %s", w.Address)
		return nil
	}),
}
