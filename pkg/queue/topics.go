// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：fu.<域>.<结果>，尽量稳定且向后兼容.
const (
	TopicUploadCommitted = "fu.upload.committed" // 文件已写入上传目录
	TopicUploadRejected  = "fu.upload.rejected"  // 密码或文件字段校验未通过，上传目录未被修改
	TopicUploadFailed    = "fu.upload.failed"    // 读取请求、写临时文件或拷贝时失败

	TopicScratchReaped = "fu.scratch.reaped" // 回收任务删除了孤儿临时文件
)

// UploadTopics 上传生命周期的全部主题.
var UploadTopics = []string{TopicUploadCommitted, TopicUploadRejected, TopicUploadFailed}
