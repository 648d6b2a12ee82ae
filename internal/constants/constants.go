package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// ScoreModulePrefix 打分模块
	ScoreModulePrefix = "score"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityHashToID 内容哈希到简历ID的映射实体
	EntityHashToID = "hash_to_id"
	// EntityResult 打分结果实体
	EntityResult = "result"

	// KeyContentHashSet 简历内容哈希集合，用于快速去重 (SET)
	// 格式: app:resume:dedup_set
	KeyContentHashSet = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityDedupSet

	// KeyContentHashToResumeID 内容哈希到简历ID的映射 (STRING)
	// 格式: app:resume:hash_to_id:{hash}
	KeyContentHashToResumeID = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityHashToID + ":%s"

	// KeyMatchScoreCache 匹配打分结果缓存 (STRING)
	// 格式: app:score:result:{resumeID}:{jdFingerprint}
	KeyMatchScoreCache = AppPrefix + ":" + ScoreModulePrefix + ":" + EntityResult + ":%s:%s"
)

// 上传相关常量
const (
	// DefaultSourceChannel 未指定来源渠道时的默认值
	DefaultSourceChannel = "web_upload"

	// UnableToExtractText 文档文本提取失败时的降级标记文本
	UnableToExtractText = "Unable to extract text from document. Please try a different file format."
)
