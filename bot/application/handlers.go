package application

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"appstore-bot/bot/domain"
)

const (
	cacheTTLShort = 10 * time.Minute
	cacheTTLLong  = 30 * time.Minute

	chartSize = 10
)

const defaultPriceRegion = "美国"

// Handlers implements the bot's commands over the upstream sources.
// Every dependency is an interface (or nil-able) so the whole set is
// testable with fakes and degrades when a collaborator is absent.
type Handlers struct {
	Search domain.AppSearcher
	Charts domain.ChartSource
	Feed   domain.FeedSource
	Rates  domain.RateSource
	Cache  domain.ReplyCache
	Store  domain.KV
	Stats  StatsReader
	Gate   Gate

	// CheckURL probes whether an artwork URL is actually reachable
	// before advertising it; nil skips the upgrade.
	CheckURL func(ctx context.Context, rawURL string) bool

	Now    func() time.Time
	Logger *zap.Logger
}

// StatsReader exposes the aggregate counters the admin dashboard shows.
type StatsReader interface {
	Totals(ctx context.Context) (allowed, denied int64, err error)
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) cached(ctx context.Context, key string, ttl time.Duration, fill func(ctx context.Context) (string, error)) (string, error) {
	if h.Cache == nil {
		return fill(ctx)
	}
	return h.Cache.GetOrFill(ctx, key, ttl, fill)
}

func cacheToken(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

// upstreamFail maps an upstream failure to the text shown to the user.
// An already-over context propagates instead: expired messages are
// answered with silence at the transport, and coming out of the fill
// as an error keeps the failure text out of the reply cache.
func upstreamFail(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// ChartQuery renders the top free/paid chart for one region.
// chartType is the literal suffix the user typed: 免费榜 or 付费榜.
func (h *Handlers) ChartQuery(ctx context.Context, regionInput, chartType string) (string, error) {
	code, ok := CountryCode(regionInput)
	if !ok {
		return "不支持的地区或格式错误。", nil
	}
	kind := domain.ChartFree
	if chartType == "付费榜" {
		kind = domain.ChartPaid
	}
	display := RegionName(code)

	key := fmt.Sprintf("reply:chart:%s:%s", code, kind)
	reply, err := h.cached(ctx, key, cacheTTLShort, func(ctx context.Context) (string, error) {
		apps, err := h.Charts.TopApps(ctx, code, kind, chartSize)
		if err != nil {
			return "", fmt.Errorf("chart fetch %s: %w", code, err)
		}
		if len(apps) == 0 {
			return "获取榜单失败，Apple 接口暂不可用，请稍后再试。", nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s%s\n%s\n\n", display, chartType, formatTime(h.now()))
		for i, app := range apps {
			if app.URL != "" {
				fmt.Fprintf(&b, "%d、<a href=\"%s\">%s</a>\n", i+1, app.URL, app.Name)
			} else {
				fmt.Fprintf(&b, "%d、%s\n", i+1, app.Name)
			}
		}

		toggle := "付费榜"
		if kind == domain.ChartPaid {
			toggle = "免费榜"
		}
		toggleCmd := url.QueryEscape(display + toggle)
		fmt.Fprintf(&b, "› <a href=\"weixin://bizmsgmenu?msgmenucontent=%s&msgmenuid=chart_toggle\">查看%s</a>\n", toggleCmd, toggle)
		fmt.Fprintf(&b, "\n%s", sourceNote)
		return b.String(), nil
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("chart fetch failed", zap.String("region", code), zap.Error(err))
		}
		return upstreamFail(ctx, "获取榜单失败，Apple 接口暂不可用，请稍后再试。")
	}
	return reply, nil
}

// PriceQuery looks an app up in one region and reports its price, with
// a CNY conversion when the storefront prices in another currency.
func (h *Handlers) PriceQuery(ctx context.Context, appName, regionName string, defaultRegion bool) (string, error) {
	code, ok := CountryCode(regionName)
	if !ok {
		return fmt.Sprintf("不支持的地区或格式错误：%s", regionName), nil
	}

	key := fmt.Sprintf("reply:price:%s:%s", code, cacheToken(appName))
	reply, err := h.cached(ctx, key, cacheTTLShort, func(ctx context.Context) (string, error) {
		apps, err := h.Search.Search(ctx, appName, code, 1)
		if err != nil {
			return "", fmt.Errorf("price search %q: %w", appName, err)
		}
		if len(apps) == 0 {
			return fmt.Sprintf("在%s未找到“%s”。", regionName, appName), nil
		}
		best := apps[0]

		var b strings.Builder
		fmt.Fprintf(&b, "您查询的“%s”最匹配的结果是：\n\n", appName)
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n\n", best.URL, best.Name)
		fmt.Fprintf(&b, "地区：%s\n价格：%s", regionName, formatPrice(best.Price, best.HasPrice, best.Currency))

		if best.HasPrice && best.Price > 0 && best.Currency != "" && h.Rates != nil {
			if rate, err := h.Rates.RateToCNY(ctx, best.Currency); err == nil && rate > 0 {
				fmt.Fprintf(&b, " (≈ ¥%s)", strconv.FormatFloat(best.Price*rate, 'f', 2, 64))
			}
		}

		fmt.Fprintf(&b, "\n时间：%s", formatTime(h.now()))
		if defaultRegion {
			fmt.Fprintf(&b, "\n\n想查其他地区？试试发送：\n价格 %s 日本", appName)
		}
		fmt.Fprintf(&b, "\n\n%s", sourceNote)
		return b.String(), nil
	})
	if err != nil {
		return upstreamFail(ctx, "查询价格失败，请稍后再试。")
	}
	return reply, nil
}

// AppDetails reports rating, size, last update, version and OS floor for
// the best match in the US storefront.
func (h *Handlers) AppDetails(ctx context.Context, appName string) (string, error) {
	key := "reply:detail:us:" + cacheToken(appName)
	reply, err := h.cached(ctx, key, cacheTTLShort, func(ctx context.Context) (string, error) {
		apps, err := h.Search.Search(ctx, appName, "us", 1)
		if err != nil {
			return "", fmt.Errorf("detail search %q: %w", appName, err)
		}
		if len(apps) == 0 {
			return fmt.Sprintf("未找到应用“%s”，请检查名称或稍后再试。", appName), nil
		}
		app := apps[0]

		rating := "暂无"
		if app.Rating > 0 {
			rating = strconv.FormatFloat(app.Rating, 'f', 1, 64)
		}
		updated := shortDate(app.UpdatedAt)
		if updated == "" {
			updated = "未知"
		}
		minOS := "未知"
		if app.MinimumOS != "" {
			minOS = app.MinimumOS + "+"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "您查询的“%s”最匹配的结果是：\n\n", appName)
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n\n", app.URL, app.Name)
		fmt.Fprintf(&b, "评分：%s\n大小：%s\n更新：%s\n版本：%s\n兼容：iOS %s\n\n%s",
			rating, formatBytes(app.SizeBytes), updated, app.Version, minOS, sourceNote)
		return b.String(), nil
	})
	if err != nil {
		return upstreamFail(ctx, "获取应用详情失败，请稍后再试。")
	}
	return reply, nil
}

// IconLookup returns the app's icon URL, upgraded to the 1024px artwork
// when that variant is reachable.
func (h *Handlers) IconLookup(ctx context.Context, appName string) (string, error) {
	key := "reply:icon:us:" + cacheToken(appName)
	reply, err := h.cached(ctx, key, cacheTTLShort, func(ctx context.Context) (string, error) {
		apps, err := h.Search.Search(ctx, appName, "us", 1)
		if err != nil {
			return "", fmt.Errorf("icon search %q: %w", appName, err)
		}
		if len(apps) == 0 {
			return "未找到相关应用，请检查名称。", nil
		}
		app := apps[0]

		icon := app.IconURL
		desc := "图标链接"
		if highRes := strings.Replace(icon, "100x100bb.jpg", "1024x1024bb.jpg", 1); highRes != icon {
			if h.CheckURL != nil && h.CheckURL(ctx, highRes) {
				icon = highRes
				desc = "高清图标链接"
			}
		}

		return fmt.Sprintf("您查询的“%s”最匹配的结果是：\n\n<a href=\"%s\">%s</a>\n\n这是它的%s：\n%s\n\n%s",
			appName, app.URL, app.Name, desc, icon, sourceNote), nil
	})
	if err != nil {
		return upstreamFail(ctx, "查询应用图标失败，请稍后再试。")
	}
	return reply, nil
}

// RegionSwitch builds the store-switch deep links for a region. Pure
// formatting over the storefront table, so it is never gated.
func (h *Handlers) RegionSwitch(regionName string) string {
	code, ok := CountryCode(regionName)
	if !ok {
		return "不支持的地区或格式错误。"
	}
	dsf, ok := dsfByCode[code]
	if !ok {
		return "不支持的地区或格式错误。"
	}

	link := func(dsf, cc string) string {
		return fmt.Sprintf("itms-apps://itunes.apple.com/WebObjects/MZStore.woa/wa/resetAndRedirect?dsf=%s&cc=%s", dsf, cc)
	}

	return fmt.Sprintf("由于微信限制，请长按复制下方链接去 Safari 浏览器地址栏粘贴打开。\n\n"+
		"【切换至 %s】链接：\n<a href=\"weixin://\">%s</a>\n\n"+
		"【切换回 中国】链接：\n<a href=\"weixin://\">%s</a>\n\n"+
		"<a href=\"weixin://bizmsgmenu?msgmenucontent=商店切换图示&msgmenuid=商店切换图示\">👉 点击查看图示</a>",
		RegionName(code), link(dsf, code), link(dsfByCode["cn"], "cn"))
}

// OSOverview renders the latest version of every platform family.
func (h *Handlers) OSOverview(ctx context.Context) (string, error) {
	reply, err := h.cached(ctx, "reply:os:overview", cacheTTLLong, func(ctx context.Context) (string, error) {
		doc, err := h.Feed.Fetch(ctx)
		if err != nil {
			return "", fmt.Errorf("release feed: %w", err)
		}

		var lines []string
		for _, p := range domain.Platforms {
			if latest, ok := Latest(CollectReleases(doc, p)); ok {
				lines = append(lines, fmt.Sprintf("• %s %s", p, latest.Version))
			}
		}
		if len(lines) == 0 {
			return "暂未获取到系统版本信息，请稍后再试。", nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "最新系统版本：\n\n%s\n\n查看详情：\n", strings.Join(lines, "\n"))
		b.WriteString("› <a href=\"weixin://bizmsgmenu?msgmenucontent=iOS&msgmenuid=iOS\">iOS</a>      › <a href=\"weixin://bizmsgmenu?msgmenucontent=iPadOS&msgmenuid=iPadOS\">iPadOS</a>\n")
		b.WriteString("› <a href=\"weixin://bizmsgmenu?msgmenucontent=macOS&msgmenuid=macOS\">macOS</a>     › <a href=\"weixin://bizmsgmenu?msgmenucontent=watchOS&msgmenuid=watchOS\">watchOS</a>\n")
		fmt.Fprintf(&b, "\n查询时间：%s\n\n%s", formatTime(h.now()), sourceNote)
		return b.String(), nil
	})
	if err != nil {
		return upstreamFail(ctx, "查询系统版本失败，请稍后再试。")
	}
	return reply, nil
}

// OSDetail renders one platform's latest release and its recent history.
func (h *Handlers) OSDetail(ctx context.Context, inputPlatform string) (string, error) {
	platform, ok := domain.NormalizePlatform(inputPlatform)
	if !ok {
		platform = domain.PlatformIOS
	}

	key := fmt.Sprintf("reply:os:detail:%s", platform)
	reply, err := h.cached(ctx, key, cacheTTLLong, func(ctx context.Context) (string, error) {
		doc, err := h.Feed.Fetch(ctx)
		if err != nil {
			return "", fmt.Errorf("release feed: %w", err)
		}

		rs := CollectReleases(doc, platform)
		latest, ok := Latest(rs)
		if !ok {
			return fmt.Sprintf("%s 暂无版本信息。", platform), nil
		}

		stableTag := " — 正式版"
		if IsPrerelease(latest) {
			stableTag = ""
		}
		latestDate := shortDate(latest.Date)
		if latestDate == "" {
			latestDate = "未知"
		}

		var lines []string
		for _, r := range History(rs) {
			tag := ""
			if IsBeta(r) {
				tag = " (Beta)"
			}
			line := fmt.Sprintf("• %s (%s)%s", r.Version, r.Build, tag)
			if d := shortDate(r.Date); d != "" {
				line += " " + d
			}
			lines = append(lines, line)
		}

		return fmt.Sprintf("%s 最新版本：\n版本：%s（%s）%s\n时间：%s\n\n近期历史：\n%s\n\n%s",
			platform, latest.Version, latest.Build, stableTag, latestDate,
			strings.Join(lines, "\n"), sourceNote), nil
	})
	if err != nil {
		return upstreamFail(ctx, "查询系统版本失败，请稍后再试。")
	}
	return reply, nil
}

// AdminStatus is the operator dashboard. Silent (empty reply) for
// anyone outside the administrator set.
func (h *Handlers) AdminStatus(ctx context.Context, identity string) (string, error) {
	if !h.Gate.Config.IsAdmin(identity) {
		return "", nil
	}

	dbSize := "未连接KV"
	if h.Store != nil {
		if n, err := h.Store.DBSize(ctx); err == nil {
			dbSize = formatInt(n)
		} else {
			dbSize = "查询失败"
		}
	}

	statsLine := ""
	if h.Stats != nil {
		if allowed, denied, err := h.Stats.Totals(ctx); err == nil {
			statsLine = fmt.Sprintf("\n放行/拒绝：%s/%s", formatInt(allowed), formatInt(denied))
		}
	}

	return fmt.Sprintf("【管理看板】\n\n状态：运行中\n缓存Key数：%s%s\n每日限额：%s次/人\n\n系统时间：%s",
		dbSize, statsLine, formatInt(h.Gate.Config.GlobalDailyLimit), formatTime(h.now())), nil
}

// VIPCommand grants or revokes the exemption flag. Admin-only and loud
// on failure, in contrast with the gate's own fail-open checks.
func (h *Handlers) VIPCommand(ctx context.Context, identity, op, target string) (string, error) {
	if !h.Gate.Config.IsAdmin(identity) {
		return "", nil
	}

	vipOp := VIPGrant
	if op == "删除" {
		vipOp = VIPRevoke
	}
	if err := h.Gate.ManageVIP(ctx, vipOp, target); err != nil {
		if h.Logger != nil {
			h.Logger.Error("vip mutation failed", zap.String("op", op), zap.Error(err))
		}
		return fmt.Sprintf("VIP操作失败：%v", err), nil
	}
	if vipOp == VIPGrant {
		return fmt.Sprintf("已将 %s 设为 VIP。", target), nil
	}
	return fmt.Sprintf("已取消 %s 的 VIP。", target), nil
}

// Welcome renders the subscribe greeting; the first-time flag lives in
// the KV so returning followers get a different prefix. Store failures
// just mean "treat as first time".
func (h *Handlers) Welcome(ctx context.Context, identity string) string {
	first := true
	if h.Store != nil && identity != "" {
		key := "subscribed:" + identity
		if v, err := h.Store.Get(ctx, key); err == nil && v != "" {
			first = false
		} else {
			_ = h.Store.Set(ctx, key, "1", 0)
		}
	}
	return welcomeText(first)
}
