package handle

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/service"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><td>{{.UploadDirLabel}}</td><td>{{.UploadDir}}</td></tr>
<tr><td>URI</td><td>{{.URI}}</td></tr>
<tr><td>{{.MaxFileSizeLabel}}</td><td>{{.MaxFileSize}}</td></tr>
</table>
<form action="{{.Action}}" method="post" enctype="multipart/form-data">
<p><label>{{.PasswordLabel}} <input type="password" name="{{.PasswordKey}}"></label></p>
<p><label>{{.FileLabel}} <input type="file" name="{{.FileKey}}"></label></p>
<p><input type="submit" value="{{.SubmitLabel}}"></p>
</form>
</body>
</html>
`))

type indexData struct {
	Lang             string
	Title            string
	UploadDirLabel   string
	UploadDir        string
	URI              string
	MaxFileSizeLabel string
	MaxFileSize      string
	Action           string
	PasswordLabel    string
	PasswordKey      string
	FileLabel        string
	FileKey          string
	SubmitLabel      string
}

// renderIndex 渲染首页. 页面内容只依赖启动时的配置，所以只渲染一次.
func renderIndex(cfg *configs.AppConfig, catalog *locale.Catalog) ([]byte, error) {
	data := indexData{
		Lang:             catalog.Tag().String(),
		Title:            catalog.Text(locale.IndexTitle),
		UploadDirLabel:   catalog.Text(locale.IndexUploadDir),
		UploadDir:        cfg.Upload.Path,
		URI:              cfg.Upload.IndexPath(),
		MaxFileSizeLabel: catalog.Text(locale.IndexMaxFileSize),
		MaxFileSize:      humanize.IBytes(uint64(cfg.Upload.MaxFileSize())),
		Action:           cfg.Upload.UploadPath(),
		PasswordLabel:    catalog.Text(locale.IndexPassword),
		PasswordKey:      service.KeyPassword,
		FileLabel:        catalog.Text(locale.IndexFile),
		FileKey:          service.KeyFile,
		SubmitLabel:      catalog.Text(locale.IndexSubmit),
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Index 返回首页.
//
//	@Summary	上传页面
//	@Tags		上传
//	@Produce	html
//	@Success	200	{string}	string	"HTML 页面"
//	@Router		/file_uploader [get]
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.index)
}
