// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/fileuploader/pkg/cmd"
)

//	@title			fileuploader API
//	@version		1.0.0
//	@description	带共享密码校验的 multipart 文件上传服务，文件在密码校验通过后才写入上传目录。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
