package parser

import (
	"regexp"
	"strings"

	"resume-screener-go/internal/types"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// 带国家码的形态优先
	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	}

	// 链接字段不区分大小写，简历里常见"LinkedIn.com"这类写法
	linkedinRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`),
		regexp.MustCompile(`(?i)linkedin\.com/pub/[\w-]+`),
	}

	websiteRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)github\.com/[\w-]+`),
		regexp.MustCompile(`(?i)portfolio\.[a-zA-Z0-9.-]+\.[a-z]{2,}`),
		regexp.MustCompile(`(?i)https?://[a-zA-Z0-9.-]+\.[a-z]{2,}`),
	}
)

// ExtractContact 用正则从简历文本提取联系方式，任一字段找不到即为空
func ExtractContact(text string) types.Contact {
	var c types.Contact

	if m := emailRe.FindString(text); m != "" {
		c.Email = &m
	}

	for _, re := range phoneRes {
		if m := re.FindString(text); m != "" {
			c.Phone = &m
			break
		}
	}

	for _, re := range linkedinRes {
		if m := re.FindString(text); m != "" {
			c.LinkedIn = &m
			break
		}
	}

	// 个人网站跳过LinkedIn链接，避免和上面的字段重复
	for _, re := range websiteRes {
		found := ""
		for _, m := range re.FindAllString(text, -1) {
			if strings.Contains(strings.ToLower(m), "linkedin") {
				continue
			}
			found = m
			break
		}
		if found != "" {
			c.Website = &found
			break
		}
	}

	return c
}
