package epay

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
)

var (
	ErrConfigInvalid    = errors.New("epay config invalid")
	ErrRequestFailed    = errors.New("epay request failed")
	ErrResponseInvalid  = errors.New("epay response invalid")
	ErrChannelInvalid   = errors.New("epay channel type invalid")
	ErrSignatureInvalid = errors.New("epay signature invalid")
)

// 易支付支持的支付通道
const (
	ChannelAlipay = "alipay"
	ChannelWxpay  = "wxpay"
)

// Config 易支付网关配置（MD5 签名）
type Config struct {
	GatewayURL  string // 网关地址
	MerchantID  string // 商户号
	MerchantKey string // 商户密钥
	NotifyURL   string // 异步通知地址
	ReturnURL   string // 同步跳转地址
	APIPath     string // 接口路径
	Device      string // 设备类型
}

// CreateInput 易支付下单输入
type CreateInput struct {
	OutTradeNo  string
	Amount      string
	Subject     string
	ChannelType string
	ClientIP    string
	Param       string
}

// CreateResult 易支付下单结果
type CreateResult struct {
	PayURL  string
	QRCode  string
	TradeNo string
	Raw     map[string]interface{}
}

// ValidateConfig 校验易支付配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantKey) == "" {
		return fmt.Errorf("%w: merchant_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	if c.APIPath == "" {
		c.APIPath = "/mapi.php"
	}
	if c.Device == "" {
		c.Device = "pc"
	}
}

// CreatePayment 发起易支付下单
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OutTradeNo == "" || input.Amount == "" {
		return nil, ErrConfigInvalid
	}
	cfg.normalize()
	if input.Subject == "" {
		input.Subject = input.OutTradeNo
	}
	payType := resolvePayType(input.ChannelType)
	if payType == "" {
		return nil, ErrChannelInvalid
	}

	params := map[string]string{
		"pid":          cfg.MerchantID,
		"type":         payType,
		"out_trade_no": input.OutTradeNo,
		"notify_url":   cfg.NotifyURL,
		"return_url":   cfg.ReturnURL,
		"name":         input.Subject,
		"money":        input.Amount,
		"clientip":     input.ClientIP,
		"device":       cfg.Device,
	}
	if input.Param != "" {
		params["param"] = input.Param
	}
	params["sign"] = signMD5(buildSignContent(params) + cfg.MerchantKey)
	params["sign_type"] = "MD5"

	endpoint := buildEndpoint(cfg.GatewayURL, cfg.APIPath)
	respBytes, err := postForm(ctx, endpoint, params)
	if err != nil {
		return nil, ErrRequestFailed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code      int    `json:"code"`
		Msg       string `json:"msg"`
		TradeNo   string `json:"trade_no"`
		PayURL    string `json:"payurl"`
		QRCode    string `json:"qrcode"`
		URLScheme string `json:"urlscheme"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != 1 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Msg)
	}
	result := &CreateResult{
		PayURL:  strings.TrimSpace(resp.PayURL),
		QRCode:  strings.TrimSpace(resp.QRCode),
		TradeNo: strings.TrimSpace(resp.TradeNo),
		Raw:     raw,
	}
	if result.PayURL == "" && resp.URLScheme != "" {
		result.PayURL = strings.TrimSpace(resp.URLScheme)
	}
	return result, nil
}

// VerifyCallback 验证易支付回调签名
func VerifyCallback(cfg *Config, form map[string][]string) error {
	if cfg == nil || strings.TrimSpace(cfg.MerchantKey) == "" {
		return ErrConfigInvalid
	}
	sign := strings.TrimSpace(firstValue(form, "sign"))
	if sign == "" {
		return ErrSignatureInvalid
	}
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	expected := signMD5(buildSignContent(params) + cfg.MerchantKey)
	if !strings.EqualFold(expected, sign) {
		return ErrSignatureInvalid
	}
	return nil
}

// IsSuccessTradeStatus 判断回调交易状态是否成功
func IsSuccessTradeStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), constants.EpayTradeStatusSuccess)
}

func resolvePayType(channelType string) string {
	switch strings.ToLower(strings.TrimSpace(channelType)) {
	case ChannelWxpay, "wechat":
		return ChannelWxpay
	case ChannelAlipay, "":
		return ChannelAlipay
	default:
		return ""
	}
}

func buildEndpoint(gatewayURL, apiPath string) string {
	base := strings.TrimRight(strings.TrimSpace(gatewayURL), "/")
	path := strings.TrimSpace(apiPath)
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func postForm(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrRequestFailed
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// buildSignContent 参与签名的参数按键名升序拼接，空值与 sign/sign_type 除外
func buildSignContent(params map[string]string) string {
	var keys []string
	for k, v := range params {
		if v == "" {
			continue
		}
		if k == "sign" || k == "sign_type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(pairs, "&")
}

func signMD5(content string) string {
	sum := md5.Sum([]byte(content))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}

func firstValue(form map[string][]string, key string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
