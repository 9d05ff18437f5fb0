package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

const (
	// LegacyFileName 旧版部署使用的配置文件名.
	LegacyFileName = "conf.ini"
	// LegacySection 旧版配置文件中生效的段.
	LegacySection = "release"
)

// isLegacyINI 判断是否为旧版 ini 配置文件.
func isLegacyINI(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".ini")
}

// mergeLegacyINI 读取旧版 conf.ini 的指定段，并按新版键名合并到 viper 的配置层.
// 旧版键：port、path、max_file_size（MB）、pwd、uri. 环境变量仍然优先于这里的值.
func mergeLegacyINI(v *viper.Viper, file, section string) error {
	f, err := ini.Load(file)
	if err != nil {
		return fmt.Errorf("failed to read legacy config %s: %w", file, err)
	}

	sec := f.Section(section)
	server := map[string]any{}
	upload := map[string]any{}

	if sec.HasKey("port") {
		port, err := strconv.Atoi(strings.TrimSpace(sec.Key("port").String()))
		if err != nil {
			return fmt.Errorf("legacy config: invalid port %q: %w", sec.Key("port").String(), err)
		}

		server["port"] = port
	}

	// 旧版未配置 path 时使用当前工作目录
	if sec.HasKey("path") {
		upload["path"] = sec.Key("path").String()
	} else if wd, err := os.Getwd(); err == nil {
		upload["path"] = wd
	}

	// max_file_size 解析失败时回退到默认值
	if sec.HasKey("max_file_size") {
		upload["max_file_size_mb"] = sec.Key("max_file_size").MustInt(DefaultMaxFileSizeMB)
	}

	if sec.HasKey("pwd") {
		upload["password"] = sec.Key("pwd").String()
	}

	if sec.HasKey("uri") {
		upload["uri"] = sec.Key("uri").String()
	}

	if err := v.MergeConfigMap(map[string]any{
		"server": server,
		"upload": upload,
	}); err != nil {
		return fmt.Errorf("failed to merge legacy config: %w", err)
	}

	return nil
}
