// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yeisme/fileuploader/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "fileuploader",
		Short: "A small HTTP service that accepts password protected file uploads",
		Long: `fileuploader serves an upload page and a multipart upload endpoint.
Uploaded files are buffered to request scoped scratch files and only written
to the upload directory after the shared password has been checked.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
)

// serveFlagKeys 命令行参数与配置键的对应关系.
var serveFlagKeys = map[string]string{
	"server.debug":            "debug",
	"server.host":             "host",
	"server.port":             "port",
	"upload.path":             "path",
	"upload.uri":              "uri",
	"upload.password":         "password",
	"upload.max_file_size_mb": "max-file-size",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory (config.yaml, conf.ini, ...)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode (verbose logs, swagger)")

	addServeFlags(rootCmd.Flags())

	registerServeCommands()
	registerConfigsCommands()
	registerVersionCommands()
	registerMQCommands()
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.String("host", configs.DefaultHost, "listen address")
	fs.IntP("port", "p", configs.DefaultPort, "listen port")
	fs.String("path", configs.DefaultUploadPath, "upload directory")
	fs.String("uri", configs.DefaultUploadURI, "route prefix of the upload page")
	fs.String("password", "", "shared upload password")
	fs.Int("max-file-size", configs.DefaultMaxFileSizeMB, "max file size in MB")
}

// loadConfig 加载配置，只绑定当前命令上定义了的参数.
func loadConfig(cmd *cobra.Command) (*configs.AppConfig, *viper.Viper, error) {
	keys := map[string]string{}

	for key, name := range serveFlagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[key] = name
		}
	}

	cfg, v, err := configs.Load(configPath, configs.WithFlags(cmd.Flags(), keys))
	if err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
