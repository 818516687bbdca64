package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstore-bot/bot/domain"
)

type fakeSearch struct {
	apps []domain.App
	err  error
}

func (f fakeSearch) Search(context.Context, string, string, int) ([]domain.App, error) {
	return f.apps, f.err
}

type fakeCharts struct {
	apps []domain.ChartApp
	err  error
}

func (f fakeCharts) TopApps(context.Context, string, domain.ChartKind, int) ([]domain.ChartApp, error) {
	return f.apps, f.err
}

type fakeFeed struct {
	doc []byte
	err error
}

func (f fakeFeed) Fetch(context.Context) ([]byte, error) { return f.doc, f.err }

type fakeRates struct{ rate float64 }

func (f fakeRates) RateToCNY(context.Context, string) (float64, error) {
	if f.rate == 0 {
		return 0, errors.New("no rate")
	}
	return f.rate, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

// stallingSearch parks until the caller's context gives up, like an
// upstream that never answers within the message budget.
type stallingSearch struct{}

func (stallingSearch) Search(ctx context.Context, _, _ string, _ int) ([]domain.App, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stallingFeed struct{}

func (stallingFeed) Fetch(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// recordingCache mirrors the KV reply cache's contract: fill errors and
// empty fills are never stored.
type recordingCache struct{ stored map[string]string }

func (c *recordingCache) GetOrFill(ctx context.Context, key string, _ time.Duration, fill func(ctx context.Context) (string, error)) (string, error) {
	if v, ok := c.stored[key]; ok {
		return v, nil
	}
	v, err := fill(ctx)
	if err != nil || v == "" {
		return v, err
	}
	if c.stored == nil {
		c.stored = map[string]string{}
	}
	c.stored[key] = v
	return v, nil
}

func TestChartQuery(t *testing.T) {
	h := &Handlers{
		Charts: fakeCharts{apps: []domain.ChartApp{
			{ID: "1", Name: "WeChat", URL: "https://apps.example/1"},
			{ID: "2", Name: "Plain"},
		}},
		Now: fixedNow,
	}

	out, err := h.ChartQuery(context.Background(), "美国", "免费榜")
	require.NoError(t, err)
	assert.Contains(t, out, "美国免费榜")
	assert.Contains(t, out, `1、<a href="https://apps.example/1">WeChat</a>`)
	assert.Contains(t, out, "2、Plain")
	assert.Contains(t, out, "查看付费榜")
	assert.Contains(t, out, sourceNote)
}

func TestChartQuery_UnsupportedRegionAndUpstreamFailure(t *testing.T) {
	h := &Handlers{Charts: fakeCharts{err: errors.New("boom")}, Now: fixedNow}

	out, err := h.ChartQuery(context.Background(), "火星", "免费榜")
	require.NoError(t, err)
	assert.Equal(t, "不支持的地区或格式错误。", out)

	out, err = h.ChartQuery(context.Background(), "美国", "免费榜")
	require.NoError(t, err)
	assert.Contains(t, out, "稍后再试")
}

func TestPriceQuery_WithCNYConversion(t *testing.T) {
	h := &Handlers{
		Search: fakeSearch{apps: []domain.App{{
			Name: "Minecraft", URL: "https://apps.example/mc",
			Price: 6.99, HasPrice: true, Currency: "USD",
		}}},
		Rates: fakeRates{rate: 7.2},
		Now:   fixedNow,
	}

	out, err := h.PriceQuery(context.Background(), "Minecraft", "美国", false)
	require.NoError(t, err)
	assert.Contains(t, out, "6.99 USD")
	assert.Contains(t, out, "≈ ¥50.33")
	assert.NotContains(t, out, "想查其他地区")
}

func TestPriceQuery_DefaultRegionHintAndFree(t *testing.T) {
	h := &Handlers{
		Search: fakeSearch{apps: []domain.App{{Name: "YouTube", HasPrice: true, Price: 0}}},
		Now:    fixedNow,
	}
	out, err := h.PriceQuery(context.Background(), "YouTube", "美国", true)
	require.NoError(t, err)
	assert.Contains(t, out, "免费")
	assert.Contains(t, out, "想查其他地区")
}

func TestPriceQuery_NoResult(t *testing.T) {
	h := &Handlers{Search: fakeSearch{}, Now: fixedNow}
	out, err := h.PriceQuery(context.Background(), "nope", "日本", false)
	require.NoError(t, err)
	assert.Contains(t, out, "未找到")
}

func TestPriceQuery_DeadlineYieldsErrorNotText(t *testing.T) {
	cache := &recordingCache{}
	h := &Handlers{Search: stallingSearch{}, Cache: cache, Now: fixedNow}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := h.PriceQuery(ctx, "YouTube", "美国", false)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out, "an expired message must not get a failure text")
	assert.Empty(t, cache.stored, "nothing may be cached for an expired message")
}

func TestPriceQuery_UpstreamFailureTextNotCached(t *testing.T) {
	cache := &recordingCache{}
	h := &Handlers{Search: fakeSearch{err: errors.New("boom")}, Cache: cache, Now: fixedNow}

	out, err := h.PriceQuery(context.Background(), "YouTube", "美国", false)
	require.NoError(t, err)
	assert.Contains(t, out, "稍后再试")
	assert.Empty(t, cache.stored, "failure texts must not be memoized")

	// a later successful lookup is cached as usual
	h.Search = fakeSearch{apps: []domain.App{{Name: "YouTube"}}}
	out, err = h.PriceQuery(context.Background(), "YouTube", "美国", false)
	require.NoError(t, err)
	assert.Contains(t, out, "YouTube")
	assert.Len(t, cache.stored, 1)
}

func TestOSOverview_DeadlineYieldsErrorNotText(t *testing.T) {
	h := &Handlers{Feed: stallingFeed{}, Now: fixedNow}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := h.OSOverview(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, out)
}

func TestAppDetails(t *testing.T) {
	h := &Handlers{
		Search: fakeSearch{apps: []domain.App{{
			Name: "TikTok", URL: "https://apps.example/tt",
			Rating: 4.53, SizeBytes: 300 << 20, Version: "32.1",
			MinimumOS: "13.0", UpdatedAt: fixedNow(),
		}}},
		Now: fixedNow,
	}
	out, err := h.AppDetails(context.Background(), "TikTok")
	require.NoError(t, err)
	assert.Contains(t, out, "评分：4.5")
	assert.Contains(t, out, "300.0 MB")
	assert.Contains(t, out, "兼容：iOS 13.0+")
}

func TestIconLookup_HighResUpgrade(t *testing.T) {
	h := &Handlers{
		Search: fakeSearch{apps: []domain.App{{
			Name: "QQ", URL: "https://apps.example/qq",
			IconURL: "https://is1.example/img/100x100bb.jpg",
		}}},
		CheckURL: func(context.Context, string) bool { return true },
		Now:      fixedNow,
	}
	out, err := h.IconLookup(context.Background(), "QQ")
	require.NoError(t, err)
	assert.Contains(t, out, "高清图标链接")
	assert.Contains(t, out, "1024x1024bb.jpg")

	h.CheckURL = func(context.Context, string) bool { return false }
	out, err = h.IconLookup(context.Background(), "QQ")
	require.NoError(t, err)
	assert.Contains(t, out, "100x100bb.jpg")
	assert.NotContains(t, out, "高清")
}

func TestRegionSwitch(t *testing.T) {
	h := &Handlers{Now: fixedNow}
	out := h.RegionSwitch("美国")
	assert.Contains(t, out, "dsf=143441&cc=us")
	assert.Contains(t, out, "dsf=143465&cc=cn")

	assert.Equal(t, "不支持的地区或格式错误。", h.RegionSwitch("火星"))
}

func TestOSOverviewAndDetail(t *testing.T) {
	h := &Handlers{Feed: fakeFeed{doc: []byte(sampleFeed)}, Now: fixedNow}

	out, err := h.OSOverview(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "• iOS 17.2")
	assert.Contains(t, out, "• macOS 14.2")

	out, err = h.OSDetail(context.Background(), "iOS")
	require.NoError(t, err)
	assert.Contains(t, out, "版本：17.2（21C62）")
	assert.Contains(t, out, "正式版")
	assert.Contains(t, out, "近期历史：")
}

func TestOSDetail_FeedFailure(t *testing.T) {
	h := &Handlers{Feed: fakeFeed{err: errors.New("unreachable")}, Now: fixedNow}
	out, err := h.OSDetail(context.Background(), "iOS")
	require.NoError(t, err)
	assert.Contains(t, out, "稍后再试")
}

func TestAdminStatus(t *testing.T) {
	kv := newFakeKV()
	h := &Handlers{Gate: testGate(kv), Store: kv, Now: fixedNow}

	out, err := h.AdminStatus(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Contains(t, out, "管理看板")

	out, err = h.AdminStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, out, "non-admins get silence, not an error")
}

func TestVIPCommand(t *testing.T) {
	kv := newFakeKV()
	h := &Handlers{Gate: testGate(kv), Now: fixedNow}

	out, err := h.VIPCommand(context.Background(), "admin-1", "添加", "user-7")
	require.NoError(t, err)
	assert.Contains(t, out, "VIP")
	assert.True(t, h.Gate.IsVIP(context.Background(), "user-7"))

	out, err = h.VIPCommand(context.Background(), "admin-1", "删除", "user-7")
	require.NoError(t, err)
	assert.Contains(t, out, "取消")
	assert.False(t, h.Gate.IsVIP(context.Background(), "user-7"))

	// loud failure shows up in the reply
	h.Gate.Store = nil
	out, err = h.VIPCommand(context.Background(), "admin-1", "添加", "user-7")
	require.NoError(t, err)
	assert.Contains(t, out, "失败")

	// non-admin: silence
	out, err = h.VIPCommand(context.Background(), "user-1", "添加", "user-7")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWelcome_FirstTimeFlag(t *testing.T) {
	kv := newFakeKV()
	h := &Handlers{Store: kv, Now: fixedNow}

	first := h.Welcome(context.Background(), "user-1")
	assert.NotContains(t, first, "欢迎回来")

	again := h.Welcome(context.Background(), "user-1")
	assert.Contains(t, again, "欢迎回来")
}

func TestWelcome_MenuEntriesHaveKeywordReplies(t *testing.T) {
	menu := welcomeText(true)

	// every keyword advertised in the menu must answer when sent back
	for _, kw := range []string{"付款方式", "应用查询", "榜单查询", "价格查询", "图标查询"} {
		assert.Contains(t, menu, "msgmenucontent="+kw, "menu must advertise %s", kw)
		_, ok := KeywordReply(kw)
		assert.True(t, ok, "keyword %s must have a reply", kw)
	}
}
