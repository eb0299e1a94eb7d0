package ai

import (
	"fmt"
	"strings"

	"github.com/xobi-ai/xobi/internal/pkg/content"
)

// PageType describes one kind of e-commerce detail page the outline model
// may plan.
type PageType struct {
	Name         string
	Description  string
	TypicalRatio string
}

// EcomPageTypes is the catalogue of page kinds used in outline prompts.
var EcomPageTypes = map[string]PageType{
	"cover":         {Name: "主图/封面", Description: "产品名称 + 核心卖点钩子，第一眼抓住注意力", TypicalRatio: "1:1"},
	"selling_point": {Name: "核心卖点", Description: "1-2条主打卖点，大字突出", TypicalRatio: "3:4"},
	"feature":       {Name: "功能特性", Description: "具体功能说明，可配图标/icon", TypicalRatio: "3:4"},
	"scene":         {Name: "使用场景", Description: "真实使用环境展示，增强代入感", TypicalRatio: "3:4"},
	"detail":        {Name: "细节特写", Description: "材质/工艺/做工细节放大展示", TypicalRatio: "3:4"},
	"specs":         {Name: "规格参数", Description: "尺寸/重量/参数表格", TypicalRatio: "3:4"},
	"comparison":    {Name: "对比页", Description: "与竞品或旧版对比，突出优势", TypicalRatio: "3:4"},
	"service":       {Name: "服务保障", Description: "售后/质保/发货/退换政策", TypicalRatio: "3:4"},
	"social_proof":  {Name: "口碑背书", Description: "销量/好评/认证/明星同款", TypicalRatio: "3:4"},
	"faq":           {Name: "常见问题", Description: "FAQ解答常见疑虑", TypicalRatio: "3:4"},
	"brand_story":   {Name: "品牌故事", Description: "品牌理念/创始故事/slogan", TypicalRatio: "3:4"},
	"cta":           {Name: "行动号召", Description: "立即购买/加入购物车/限时优惠", TypicalRatio: "3:4"},
}

func languageInstruction(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		return "Write all output text in English."
	}
	return "所有输出文字使用简体中文。"
}

// OutlineInput carries project inputs into the outline prompt.
type OutlineInput struct {
	IdeaPrompt        string
	DescriptionText   string
	ExtraRequirements string
	ReferenceDocs     []ReferenceDoc
	OutputLanguage    string
}

// ReferenceDoc is parsed reference-file content attached to the prompt.
type ReferenceDoc struct {
	Filename string
	Content  string
}

func referenceDocsXML(docs []ReferenceDoc) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<uploaded_files>\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "  <file name=%q>\n    <content>\n%s\n    </content>\n  </file>\n", d.Filename, d.Content)
	}
	b.WriteString("</uploaded_files>\n")
	return b.String()
}

// BuildOutlinePrompt asks the text model for a JSON array of page outlines.
func BuildOutlinePrompt(in OutlineInput) string {
	var b strings.Builder

	b.WriteString("你是一名电商详情页策划。根据下面的产品信息规划一套电商图片页面（封面 + 详情页）。\n\n")
	b.WriteString(referenceDocsXML(in.ReferenceDocs))

	if in.IdeaPrompt != "" {
		fmt.Fprintf(&b, "产品信息：\n%s\n\n", in.IdeaPrompt)
	}
	if in.DescriptionText != "" {
		fmt.Fprintf(&b, "产品描述：\n%s\n\n", in.DescriptionText)
	}
	if in.ExtraRequirements != "" {
		fmt.Fprintf(&b, "额外要求：\n%s\n\n", in.ExtraRequirements)
	}

	b.WriteString("可选页面类型：\n")
	for key, pt := range EcomPageTypes {
		fmt.Fprintf(&b, "- %s (%s): %s\n", key, pt.Name, pt.Description)
	}

	b.WriteString("\n输出严格的 JSON 数组，第一项必须是封面页，每项形如 ")
	b.WriteString(`{"title": "页面标题", "points": ["要点1", "要点2"]}`)
	b.WriteString("，页数控制在 5-8 页。不要输出 JSON 以外的内容。\n")
	b.WriteString(languageInstruction(in.OutputLanguage))

	return b.String()
}

// DescriptionInput carries one page into the description prompt.
type DescriptionInput struct {
	Outline           content.Outline
	PageIndex         int
	PageCount         int
	IdeaPrompt        string
	ExtraRequirements string
	OutputLanguage    string
}

// BuildDescriptionPrompt asks the text model for the visual copy of one page.
func BuildDescriptionPrompt(in DescriptionInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "为电商图片的第 %d/%d 页撰写画面文案与视觉说明。\n\n", in.PageIndex+1, in.PageCount)
	if in.IdeaPrompt != "" {
		fmt.Fprintf(&b, "产品信息：%s\n", in.IdeaPrompt)
	}
	fmt.Fprintf(&b, "页面标题：%s\n", in.Outline.Title)
	if len(in.Outline.Points) > 0 {
		fmt.Fprintf(&b, "页面要点：%s\n", strings.Join(in.Outline.Points, "；"))
	}
	if in.ExtraRequirements != "" {
		fmt.Fprintf(&b, "额外要求：%s\n", in.ExtraRequirements)
	}

	b.WriteString("\n输出一段连贯的文字，描述这一页图片上应出现的主文案、辅助文案和画面构成，直接可用作图像生成提示词。不要使用 markdown。\n")
	b.WriteString(languageInstruction(in.OutputLanguage))

	return b.String()
}

// ImagePromptInput carries one page into the final image prompt.
type ImagePromptInput struct {
	DescriptionText string
	Part            string
	AspectRatio     string
	TemplateStyled  bool
	OutputLanguage  string
}

// BuildImagePrompt wraps the page description into the prompt sent to the
// image model.
func BuildImagePrompt(in ImagePromptInput) string {
	var b strings.Builder

	b.WriteString("生成一张高质量的电商详情页图片。\n")
	if in.Part != "" {
		fmt.Fprintf(&b, "页面类型：%s\n", in.Part)
	}
	fmt.Fprintf(&b, "画面内容：\n%s\n", in.DescriptionText)
	if in.TemplateStyled {
		b.WriteString("参考所附模板图的版式、配色和风格，但替换为本产品的内容。\n")
	}
	fmt.Fprintf(&b, "画幅比例 %s，文字清晰可读，无水印。\n", in.AspectRatio)
	b.WriteString(languageInstruction(in.OutputLanguage))

	return b.String()
}

// CaptionPrompt is the default prompt for product-image captioning.
const CaptionPrompt = "请用一句话概括这张商品图片：品类 + 关键外观特征 + 可能的材质/风格/用途。只输出描述文本，不要解释。"
