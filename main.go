package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	cli2 "aptos-swap/cli"
	appcfg "aptos-swap/internal/config"
	"aptos-swap/lib/signlog"
)

// logger 全局日志记录器
var log = logging.Logger("aptos-swap")

// main 程序入口函数
func main() {
	// 设置全局日志级别为 INFO
	signlog.SetupLogLevels()

	// 加载 .env 与 TOML 配置文件
	if err := appcfg.Load(); err != nil {
		log.Fatal(err)
		return
	}

	app := &cli.App{
		Name:    "aptos-swap",
		Usage:   "Aptos 托管钱包与 Liquidswap 兑换工具",
		Version: "1.0.0",
		Flags: append(cli2.Flags, &cli.BoolFlag{
			Name:  "debug",
			Usage: "输出调试日志",
		}),
		Before: func(cctx *cli.Context) error {
			if cctx.Bool("debug") {
				signlog.SetDebug()
			}
			return nil
		},

		Commands: cli2.All(),
	}

	// 运行 CLI 应用
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
