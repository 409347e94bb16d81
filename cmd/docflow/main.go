// Package main 启动 docflow.
package main

import (
	"os"

	"github.com/yeisme/docflow/pkg/cmd"
)

//	@title			docflow API
//	@version		1.0
//	@description	项目文档的批量上传、审批、复核与按角色可见性管理.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
