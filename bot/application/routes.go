package application

import (
	"context"
	"regexp"
	"strings"

	"appstore-bot/bot/domain"
)

// Route matchers. Several are deliberately broad (suffix/prefix over
// free text), which makes declaration order in NewRouter part of the
// contract: specific before general, first match wins.
var (
	reMyID       = regexp.MustCompile(`(?i)^myid$`)
	reAdmin      = regexp.MustCompile(`^管理状态$`)
	reVIP        = regexp.MustCompile(`(?i)^vip\s*(添加|删除)\s+(\S+)$`)
	reChart      = regexp.MustCompile(`(?i)^榜单\s*(.+)$`)
	reChartKind  = regexp.MustCompile(`(?i)^(.+?)\s*(免费榜|付费榜)$`)
	rePriceFull  = regexp.MustCompile(`(?i)^价格\s*(.+?)\s+([a-zA-Z\p{Han}]+)$`)
	rePrice      = regexp.MustCompile(`(?i)^价格\s*(.+)$`)
	reOSAll      = regexp.MustCompile(`^系统更新$`)
	reOSPlatform = regexp.MustCompile(`(?i)^(?:更新)?\s*(iOS|iPadOS|macOS|watchOS|tvOS|visionOS)$`)
	reSwitch     = regexp.MustCompile(`(?i)^(切换|地区)\s*([a-zA-Z\p{Han}]+)$`)
	reDetail     = regexp.MustCompile(`(?i)^查询\s*(.+)$`)
	reIcon       = regexp.MustCompile(`(?i)^图标\s*(.+)$`)
	reKeyword    = regexp.MustCompile(`^(.+)$`)
)

func regionArg(i int) func(args []string) bool {
	return func(args []string) bool {
		return i < len(args) && IsSupportedRegion(strings.TrimSpace(args[i]))
	}
}

// NewRouter builds the production route table. Order is load-bearing.
func NewRouter(g Gate, h *Handlers) *Router {
	routes := []domain.Route{
		{
			Pattern: reMyID,
			Cap:     domain.CapExempt,
			Handle: func(_ context.Context, cmd domain.Command) (string, error) {
				return "你的 OpenID：" + cmd.Identity, nil
			},
		},
		{
			Pattern: reAdmin,
			Cap:     domain.CapExempt,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.AdminStatus(ctx, cmd.Identity)
			},
		},
		{
			Pattern: reVIP,
			Cap:     domain.CapExempt,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.VIPCommand(ctx, cmd.Identity, cmd.Args[0], cmd.Args[1])
			},
		},
		{
			Feature:  domain.FeatureChart,
			Pattern:  reChart,
			Cap:      domain.CapGated,
			Validate: regionArg(0),
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.ChartQuery(ctx, strings.TrimSpace(cmd.Args[0]), "免费榜")
			},
		},
		{
			Feature:  domain.FeatureChart,
			Pattern:  reChartKind,
			Cap:      domain.CapGated,
			Validate: regionArg(0),
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.ChartQuery(ctx, strings.TrimSpace(cmd.Args[0]), strings.TrimSpace(cmd.Args[1]))
			},
		},
		{
			Feature:  domain.FeaturePrice,
			Pattern:  rePriceFull,
			Cap:      domain.CapGated,
			Validate: regionArg(1),
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.PriceQuery(ctx, strings.TrimSpace(cmd.Args[0]), strings.TrimSpace(cmd.Args[1]), false)
			},
		},
		{
			Feature: domain.FeaturePrice,
			Pattern: rePrice,
			Cap:     domain.CapGated,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				query := strings.TrimSpace(cmd.Args[0])
				if app, region, ok := SplitTailRegion(query); ok {
					return h.PriceQuery(ctx, app, region, false)
				}
				return h.PriceQuery(ctx, query, defaultPriceRegion, true)
			},
		},
		{
			Feature: domain.FeatureOS,
			Pattern: reOSAll,
			Cap:     domain.CapGlobalOnly,
			Handle: func(ctx context.Context, _ domain.Command) (string, error) {
				return h.OSOverview(ctx)
			},
		},
		{
			Feature: domain.FeatureOS,
			Pattern: reOSPlatform,
			Cap:     domain.CapGlobalOnly,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.OSDetail(ctx, strings.TrimSpace(cmd.Args[0]))
			},
		},
		{
			Pattern:  reSwitch,
			Cap:      domain.CapExempt,
			Validate: regionArg(1),
			Handle: func(_ context.Context, cmd domain.Command) (string, error) {
				return h.RegionSwitch(strings.TrimSpace(cmd.Args[1])), nil
			},
		},
		{
			Feature: domain.FeatureDetail,
			Pattern: reDetail,
			Cap:     domain.CapGated,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.AppDetails(ctx, strings.TrimSpace(cmd.Args[0]))
			},
		},
		{
			Feature: domain.FeatureIcon,
			Pattern: reIcon,
			Cap:     domain.CapGated,
			Handle: func(ctx context.Context, cmd domain.Command) (string, error) {
				return h.IconLookup(ctx, strings.TrimSpace(cmd.Args[0]))
			},
		},
		{
			Pattern: reKeyword,
			Cap:     domain.CapExempt,
			Validate: func(args []string) bool {
				_, ok := KeywordReply(strings.TrimSpace(args[0]))
				return ok
			},
			Handle: func(_ context.Context, cmd domain.Command) (string, error) {
				reply, _ := KeywordReply(strings.TrimSpace(cmd.Args[0]))
				return reply, nil
			},
		},
	}

	return &Router{Routes: routes, Gate: g, Logger: h.Logger}
}
