// Package akshare is a client for an AKTools-style HTTP gateway in
// front of the AKShare dataset catalogue. Every fetch method decodes the
// raw tabular response into typed storage rows, applying column
// renaming, null-sentinel handling and type coercion at this boundary.
// Rows missing a key field are dropped with a warning; unknown source
// fields are ignored.
package akshare

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

const dateParamLayout = "20060102"

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: http, logger: logger}
}

// fetchRows calls one AKShare endpoint through the gateway and decodes
// the JSON array it returns.
func (c *Client) fetchRows(ctx context.Context, endpoint string, params map[string]string) ([]row, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/api/public/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned HTTP %d: %s", endpoint, resp.StatusCode(), resp.String())
	}

	var rows []row
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return rows, nil
}

// StockBasics fetches the A-share symbol registry.
func (c *Client) StockBasics(ctx context.Context) ([]postgres.StockBasic, error) {
	raw, err := c.fetchRows(ctx, "stock_info_a_code_name", nil)
	if err != nil {
		return nil, err
	}

	out := make([]postgres.StockBasic, 0, len(raw))
	for _, r := range raw {
		code := r.str("code", "股票代码")
		if code == "" {
			c.logger.Warn("dropping symbol row without code")
			continue
		}
		out = append(out, postgres.StockBasic{
			StockCode: code,
			StockName: r.str("name", "股票简称"),
			Status:    r.str("status"),
		})
	}
	return out, nil
}

// DailyQuotes fetches one symbol's daily bars for [start, end].
func (c *Client) DailyQuotes(ctx context.Context, stockCode string, start, end time.Time) ([]postgres.DailyQuote, error) {
	raw, err := c.fetchRows(ctx, "stock_zh_a_hist", map[string]string{
		"symbol":     stockCode,
		"period":     "daily",
		"start_date": start.Format(dateParamLayout),
		"end_date":   end.Format(dateParamLayout),
		"adjust":     "",
	})
	if err != nil {
		return nil, err
	}

	out := make([]postgres.DailyQuote, 0, len(raw))
	for _, r := range raw {
		tradeDate, ok := r.date("日期", "date")
		if !ok {
			c.logger.Warn("dropping quote row without trade date", zap.String("stock_code", stockCode))
			continue
		}
		out = append(out, postgres.DailyQuote{
			StockCode:    stockCode,
			TradeDate:    tradeDate,
			Open:         r.dec("开盘"),
			High:         r.dec("最高"),
			Low:          r.dec("最低"),
			Close:        r.dec("收盘"),
			Change:       r.dec("涨跌额"),
			PctChg:       r.dec("涨跌幅"),
			Volume:       r.int64("成交量"),
			Amount:       r.dec("成交额"),
			TurnoverRate: r.dec("换手率"),
		})
	}
	return out, nil
}

// IndexDaily fetches the full daily history of one market index. The
// series comes back unfiltered; callers narrow it to their window.
func (c *Client) IndexDaily(ctx context.Context, indexCode, indexName string) ([]postgres.IndexDaily, error) {
	raw, err := c.fetchRows(ctx, "stock_zh_index_daily", map[string]string{
		"symbol": indexCode,
	})
	if err != nil {
		return nil, err
	}

	out := make([]postgres.IndexDaily, 0, len(raw))
	for _, r := range raw {
		tradeDate, ok := r.date("date", "日期")
		if !ok {
			c.logger.Warn("dropping index row without trade date", zap.String("index_code", indexCode))
			continue
		}
		out = append(out, postgres.IndexDaily{
			IndexCode: indexCode,
			IndexName: indexName,
			TradeDate: tradeDate,
			Open:      r.dec("open", "开盘"),
			High:      r.dec("high", "最高"),
			Low:       r.dec("low", "最低"),
			Close:     r.dec("close", "收盘"),
			Volume:    r.int64("volume", "成交量"),
		})
	}
	return out, nil
}

// TradeDates fetches the exchange trading-day history.
func (c *Client) TradeDates(ctx context.Context) ([]time.Time, error) {
	raw, err := c.fetchRows(ctx, "tool_trade_date_hist_sina", nil)
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, ok := r.date("trade_date")
		if !ok {
			c.logger.Warn("dropping calendar row without date")
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// HotRanks fetches the current popularity ranking snapshot, stamped
// with tradeDate. The feed has no date column of its own.
func (c *Client) HotRanks(ctx context.Context, tradeDate time.Time) ([]postgres.HotRank, error) {
	raw, err := c.fetchRows(ctx, "stock_hot_rank_em", nil)
	if err != nil {
		return nil, err
	}

	out := make([]postgres.HotRank, 0, len(raw))
	for _, r := range raw {
		pos := r.intVal("当前排名", "排名")
		code := r.str("代码", "股票代码")
		if pos == 0 || code == "" {
			c.logger.Warn("dropping hot rank row without position or code")
			continue
		}
		out = append(out, postgres.HotRank{
			TradeDate:    tradeDate,
			RankPosition: pos,
			StockCode:    code,
			StockName:    r.str("股票名称"),
			Close:        r.dec("最新价"),
			PctChg:       r.dec("涨跌幅"),
		})
	}
	return out, nil
}

// RiseRanks fetches the rising-popularity ranking snapshot.
func (c *Client) RiseRanks(ctx context.Context, tradeDate time.Time) ([]postgres.RiseRank, error) {
	raw, err := c.fetchRows(ctx, "stock_hot_up_em", nil)
	if err != nil {
		return nil, err
	}

	out := make([]postgres.RiseRank, 0, len(raw))
	for _, r := range raw {
		pos := r.intVal("当前排名", "排名")
		code := r.str("代码", "股票代码")
		if pos == 0 || code == "" {
			c.logger.Warn("dropping rise rank row without position or code")
			continue
		}
		out = append(out, postgres.RiseRank{
			TradeDate:    tradeDate,
			RankPosition: pos,
			StockCode:    code,
			StockName:    r.str("股票名称"),
			RankChange:   r.intVal("排名较昨日变动"),
		})
	}
	return out, nil
}

// HsgtFlows fetches the cross-border fund-flow summary. Each row is one
// (date, type, sector, direction) figure.
func (c *Client) HsgtFlows(ctx context.Context) ([]postgres.HsgtFlow, error) {
	raw, err := c.fetchRows(ctx, "stock_hsgt_fund_flow_summary_em", nil)
	if err != nil {
		return nil, err
	}

	out := make([]postgres.HsgtFlow, 0, len(raw))
	for _, r := range raw {
		tradeDate, ok := r.date("交易日", "日期")
		flowType := r.str("类型")
		sector := r.str("板块")
		direction := r.str("资金方向")
		if !ok || flowType == "" || sector == "" || direction == "" {
			c.logger.Warn("dropping fund flow row with incomplete key")
			continue
		}
		out = append(out, postgres.HsgtFlow{
			TradeDate: tradeDate,
			FlowType:  flowType,
			Sector:    sector,
			Direction: direction,
			Amount:    r.dec("成交净买额", "资金净流入"),
		})
	}
	return out, nil
}

// FundFlowRanks fetches the per-symbol fund-flow ranking for one
// indicator period (今日, 3日, 5日, 10日). This feed is known to emit
// duplicate rows for the same symbol within one response.
func (c *Client) FundFlowRanks(ctx context.Context, period string, tradeDate time.Time) ([]postgres.FundFlowRank, error) {
	raw, err := c.fetchRows(ctx, "stock_individual_fund_flow_rank", map[string]string{
		"indicator": period,
	})
	if err != nil {
		return nil, err
	}

	out := make([]postgres.FundFlowRank, 0, len(raw))
	for _, r := range raw {
		code := r.str("代码")
		if code == "" {
			c.logger.Warn("dropping fund flow rank row without code", zap.String("period", period))
			continue
		}
		out = append(out, postgres.FundFlowRank{
			StockCode:       code,
			IndicatorPeriod: period,
			TradeDate:       tradeDate,
			StockName:       r.str("名称"),
			RankPosition:    r.intVal("序号"),
			MainNetInflow:   r.dec(period+"主力净流入-净额", "主力净流入-净额"),
			PctChg:          r.dec(period+"涨跌幅", "涨跌幅"),
		})
	}
	return out, nil
}

// News fetches the latest market news batch, most recent first. The
// article link is the row identity; rows without one are dropped.
func (c *Client) News(ctx context.Context) ([]postgres.StockNews, error) {
	raw, err := c.fetchRows(ctx, "stock_info_global_em", nil)
	if err != nil {
		return nil, err
	}

	out := make([]postgres.StockNews, 0, len(raw))
	for _, r := range raw {
		url := r.str("链接", "新闻链接")
		if url == "" {
			c.logger.Warn("dropping news row without url")
			continue
		}
		publishTime, ok := r.timestamp("发布时间")
		if !ok {
			publishTime = time.Now()
		}
		out = append(out, postgres.StockNews{
			URL:         url,
			Title:       r.str("标题", "新闻标题"),
			Content:     r.str("摘要", "新闻内容", "内容"),
			Source:      r.str("文章来源", "来源"),
			PublishTime: publishTime,
		})
	}
	return out, nil
}
