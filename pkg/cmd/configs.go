package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// maskedPassword 打印配置时替换共享密码.
const maskedPassword = "******"

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			used := v.ConfigFileUsed()
			if used == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (maybe using defaults or env)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), used)

			return nil
		},
	}

	// 以 JSON 打印最终生效的配置，--debug 时额外调用 viper 的 Debug 输出.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the current config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, v, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if debug {
				v.DebugTo(cmd.ErrOrStderr())
			}

			out := *c
			if out.Upload.Password != "" {
				out.Upload.Password = maskedPassword
			}

			b, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config to JSON: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)

	rootCmd.AddCommand(configCmd)
}
