package code

// 通用成功码
var (
	Success = NewSuss(0, lang{
		en:    "Success",
		zh_cn: "成功",
	})
)

// 通用错误码
var (
	ServerError = NewError(10000, lang{
		en:    "Internal Server Error",
		zh_cn: "服务内部错误",
	})
	ErrorInvalidParams = NewError(10001, lang{
		en:    "Invalid Params",
		zh_cn: "入参错误",
	})
	ErrorNotFound = NewError(10002, lang{
		en:    "Not Found",
		zh_cn: "找不到资源",
	})
	ErrorNotUserAuthToken = NewError(10003, lang{
		en:    "Auth Token Not Provided",
		zh_cn: "未携带认证 Token",
	})
	ErrorInvalidUserAuthToken = NewError(10004, lang{
		en:    "Auth Token Invalid Or Expired",
		zh_cn: "认证 Token 无效或已过期",
	})
	ErrorTooManyRequests = NewError(10005, lang{
		en:    "Too Many Requests",
		zh_cn: "请求过于频繁",
	})
	ErrorDBQuery = NewError(10010, lang{
		en:    "Database Query Error",
		zh_cn: "数据库查询错误",
	})
)

// 日记条目相关错误码
var (
	ErrorEntryNotFound = NewError(20001, lang{
		en:    "Journal Entry Not Found",
		zh_cn: "日记条目不存在",
	})
	ErrorEntryCreateFail = NewError(20002, lang{
		en:    "Journal Entry Create Failed",
		zh_cn: "日记条目创建失败",
	})
	ErrorEntryUpdateFail = NewError(20003, lang{
		en:    "Journal Entry Update Failed",
		zh_cn: "日记条目更新失败",
	})
	ErrorEntryDeleteFail = NewError(20004, lang{
		en:    "Journal Entry Delete Failed",
		zh_cn: "日记条目删除失败",
	})
	ErrorEntryBlocksInvalid = NewError(20005, lang{
		en:    "Journal Entry Blocks Invalid",
		zh_cn: "日记条目块内容非法",
	})
)

// 认证相关错误码
var (
	ErrorAuthAccessKey = NewError(30001, lang{
		en:    "Access Key Incorrect",
		zh_cn: "访问密钥不正确",
	})
)

// 用户相关错误码
var (
	ErrorUserNotFound = NewError(40001, lang{
		en:    "User Not Found",
		zh_cn: "用户不存在",
	})
	ErrorUserAlreadyExists = NewError(40002, lang{
		en:    "Username Already Exists",
		zh_cn: "用户名已存在",
	})
	ErrorUserEmailAlreadyExists = NewError(40003, lang{
		en:    "Email Already Exists",
		zh_cn: "邮箱已被注册",
	})
	ErrorUserUsernameNotValid = NewError(40004, lang{
		en:    "Username Format Invalid",
		zh_cn: "用户名格式不正确",
	})
	ErrorUserPasswordNotMatch = NewError(40005, lang{
		en:    "Passwords Do Not Match",
		zh_cn: "两次输入的密码不一致",
	})
	ErrorUserLoginPasswordFailed = NewError(40006, lang{
		en:    "Incorrect Credentials Or Password",
		zh_cn: "账号或密码错误",
	})
	ErrorUserOldPasswordFailed = NewError(40007, lang{
		en:    "Old Password Incorrect",
		zh_cn: "原密码错误",
	})
	ErrorPasswordNotValid = NewError(40008, lang{
		en:    "Password Invalid",
		zh_cn: "密码不合法",
	})
	ErrorUserRegisterDisabled = NewError(40009, lang{
		en:    "Registration Disabled",
		zh_cn: "注册功能已关闭",
	})
)
