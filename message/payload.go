package message

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// 消息类型编码（落库的 tinyint 值，与 models 的 MessageType* 常量一致）。
const (
	KindText   = 1 // 文本
	KindImage  = 2 // 图片
	KindFile   = 3 // 文件
	KindURL    = 4 // 链接
	KindNotice = 5 // 公告
	KindPoll   = 6 // 投票
)

// Payload 消息体变体。老版本用"一张大表 + 可选字段"表达所有类型，
// 这里改为封闭的 tagged union：构造处 Validate，落库前 Encode，读出后 Decode。
type Payload interface {
	// Kind 落库的消息类型编码
	Kind() uint8
	// Validate 类型内字段校验（空内容/缺 URL 等）
	Validate() error
	// Encode 拆成 (content, extra)。extra 为 nil 表示无附加字段。
	Encode() (content string, extra []byte, err error)
}

// Text 纯文本消息
type Text struct {
	Content string `json:"content"`
}

func (p Text) Kind() uint8 { return KindText }

func (p Text) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("消息内容不能为空")
	}
	return nil
}

func (p Text) Encode() (string, []byte, error) {
	return p.Content, nil, nil
}

// fileExtra 图片/文件消息落库到 extra 的字段
type fileExtra struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name,omitempty"`
}

// Image 图片消息。URL 来自外部对象存储，上传不在本子系统内。
type Image struct {
	URL  string `json:"file_url"`
	Name string `json:"file_name,omitempty"`
}

func (p Image) Kind() uint8 { return KindImage }

func (p Image) Validate() error {
	return validateFileRef("图片", p.URL)
}

func (p Image) Encode() (string, []byte, error) {
	b, err := json.Marshal(fileExtra{FileURL: p.URL, FileName: p.Name})
	return "", b, err
}

// File 文件消息。与图片同构，仅类型编码不同。
type File struct {
	URL  string `json:"file_url"`
	Name string `json:"file_name,omitempty"`
}

func (p File) Kind() uint8 { return KindFile }

func (p File) Validate() error {
	return validateFileRef("文件", p.URL)
}

func (p File) Encode() (string, []byte, error) {
	b, err := json.Marshal(fileExtra{FileURL: p.URL, FileName: p.Name})
	return "", b, err
}

// URL 链接消息。Content 即链接本身。
type URL struct {
	Content string `json:"content"`
}

func (p URL) Kind() uint8 { return KindURL }

func (p URL) Validate() error {
	s := strings.TrimSpace(p.Content)
	if s == "" {
		return fmt.Errorf("链接不能为空")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("链接格式不合法: %s", p.Content)
	}
	return nil
}

func (p URL) Encode() (string, []byte, error) {
	return p.Content, nil, nil
}

// Notice 公告消息。与文本同构，但走单独的删除路径（仍限发布者本人）。
type Notice struct {
	Content string `json:"content"`
}

func (p Notice) Kind() uint8 { return KindNotice }

func (p Notice) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("公告内容不能为空")
	}
	return nil
}

func (p Notice) Encode() (string, []byte, error) {
	return p.Content, nil, nil
}

// pollExtra 投票消息落库到 extra 的字段
type pollExtra struct {
	PollID uint64 `json:"poll_id"`
}

// Poll 投票载体消息。Content 存标题便于预览，PollID 指向投票定义。
// 只能由 PollService 构造（先建 poll 再回填），外部构造视为非法。
type Poll struct {
	Title  string `json:"content"`
	PollID uint64 `json:"poll_id"`
}

func (p Poll) Kind() uint8 { return KindPoll }

func (p Poll) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("投票标题不能为空")
	}
	return nil
}

func (p Poll) Encode() (string, []byte, error) {
	b, err := json.Marshal(pollExtra{PollID: p.PollID})
	return p.Title, b, err
}

func validateFileRef(label, rawURL string) error {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return fmt.Errorf("%s消息缺少文件地址", label)
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s地址不合法: %s", label, rawURL)
	}
	return nil
}

// Decode 从落库形态还原 payload。未知类型返回错误（封闭集合）。
func Decode(kind uint8, content string, extra []byte) (Payload, error) {
	switch kind {
	case KindText:
		return Text{Content: content}, nil
	case KindImage:
		var fe fileExtra
		if err := json.Unmarshal(extra, &fe); err != nil {
			return nil, fmt.Errorf("图片消息 extra 解析失败: %w", err)
		}
		return Image{URL: fe.FileURL, Name: fe.FileName}, nil
	case KindFile:
		var fe fileExtra
		if err := json.Unmarshal(extra, &fe); err != nil {
			return nil, fmt.Errorf("文件消息 extra 解析失败: %w", err)
		}
		return File{URL: fe.FileURL, Name: fe.FileName}, nil
	case KindURL:
		return URL{Content: content}, nil
	case KindNotice:
		return Notice{Content: content}, nil
	case KindPoll:
		var pe pollExtra
		if err := json.Unmarshal(extra, &pe); err != nil {
			return nil, fmt.Errorf("投票消息 extra 解析失败: %w", err)
		}
		return Poll{Title: content, PollID: pe.PollID}, nil
	default:
		return nil, fmt.Errorf("未知消息类型: %d", kind)
	}
}

// ParseKind 客户端传入的类型字符串 -> 编码。
func ParseKind(s string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return KindText, nil
	case "image":
		return KindImage, nil
	case "file":
		return KindFile, nil
	case "url":
		return KindURL, nil
	case "notice":
		return KindNotice, nil
	case "poll":
		return KindPoll, nil
	default:
		return 0, fmt.Errorf("不支持的消息类型: %s", s)
	}
}
