package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"aptos-swap/internal/models"
	"aptos-swap/internal/service"
)

type ctxKey string

const (
	CtxService ctxKey = "service"
	CtxUser    ctxKey = "user"
)

// Flags 全局参数，标识发起操作的用户
var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "user",
		Usage:   "用户外部 ID（会话 ID）",
		EnvVars: []string{"SWAP_USER"},
	},
	&cli.StringFlag{
		Name:  "username",
		Usage: "首次出现时记录的用户名",
	},
}

// All 返回所有可用的 CLI 命令列表
func All() []*cli.Command {
	return []*cli.Command{
		WalletCmd,    // 钱包管理
		PositionsCmd, // 持仓查询
		CoinCmd,      // 代币元数据
		QuoteCmd,     // 询价
		BuyCmd,       // 用 APT 买入
		SellCmd,      // 按比例卖出
		WithdrawCmd,  // 转出
	}
}

// withClient 装配服务，命令结束后关闭数据库；不加载用户
func withClient(action func(cctx *cli.Context) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		client, err := service.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		cctx.Context = context.WithValue(cctx.Context, CtxService, client)
		return action(cctx)
	}
}

// withService 在 withClient 基础上加载当前用户，用于按用户划分的命令
func withService(action func(cctx *cli.Context) error) cli.ActionFunc {
	return withClient(func(cctx *cli.Context) error {
		externalID, err := userArg(cctx)
		if err != nil {
			return err
		}
		user, err := serviceFrom(cctx).Ledger.GetOrCreateUser(cctx.Context, externalID, cctx.String("username"))
		if err != nil {
			return xerrors.Errorf("load user %s: %w", externalID, err)
		}

		cctx.Context = context.WithValue(cctx.Context, CtxUser, user)
		return action(cctx)
	})
}

func userArg(cctx *cli.Context) (string, error) {
	externalID := cctx.String("user")
	if externalID == "" {
		return "", fmt.Errorf("--user is required")
	}
	return externalID, nil
}

func serviceFrom(cctx *cli.Context) *service.NewService {
	return cctx.Context.Value(CtxService).(*service.NewService)
}

func userFrom(cctx *cli.Context) *models.User {
	return cctx.Context.Value(CtxUser).(*models.User)
}

// idArg 解析第 n 个位置参数为数据库 ID
func idArg(cctx *cli.Context, n int, name string) (uint, error) {
	s := cctx.Args().Get(n)
	if s == "" {
		return 0, fmt.Errorf("must specify %s", name)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return uint(v), nil
}
