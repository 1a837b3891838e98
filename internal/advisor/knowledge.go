package advisor

import (
	"fmt"
	"strings"
)

// systemPrompt frames every conversation with the model.
const systemPrompt = `You are the GKash Financial Advisor, an assistant for investors in Kenya.

Answer with Kenyan market specifics: money market funds, Nairobi Securities Exchange stocks,
treasury bills and bonds, bank products and insurance. Quote figures from the supplied context
when it is present and say that rates change. Keep answers to two to four sentences unless the
user asks for detail. Politely steer questions that are not about personal finance back to money
topics. Never ask for PINs, passwords or account numbers.`

// Topic is one section of the built-in Kenyan market notes.
type Topic struct {
	Name     string
	Keywords []string
	Notes    []string
}

// Topics is searched in order; a question may match several.
var Topics = []Topic{
	{
		Name:     "money_market_funds",
		Keywords: []string{"mmf", "money market", "cic", "zimele", "icea", "britam"},
		Notes: []string{
			"CIC Money Market Fund: about 12-14% a year, minimum KES 1,000, low risk.",
			"Zimele Money Market Fund: about 11-13% a year, minimum KES 1,000, low risk.",
			"ICEA Lion Money Market Fund: about 12-15% a year, minimum KES 1,000, low risk.",
			"Britam Money Market Fund: about 11-14% a year, minimum KES 1,000, low risk.",
			"Money market funds are regulated by the Capital Markets Authority, returns carry 15% withholding tax and withdrawals usually settle within 2-3 working days.",
		},
	},
	{
		Name:     "nse_stocks",
		Keywords: []string{"stock", "nse", "shares", "safaricom", "equity", "kcb", "eabl", "bamburi"},
		Notes: []string{
			"Safaricom (SCOM): telecoms, the largest counter on the NSE by market value, pays a regular dividend.",
			"Equity Group (EQTY) and KCB Group (KCB): the two largest banking groups by assets.",
			"East African Breweries (EABL): consumer goods with a long dividend record.",
			"Bamburi Cement (BMBC): construction, tracks infrastructure spending.",
			"The NSE trades 9:00 to 15:00 on weekdays through licensed stockbrokers; dividends carry 5% withholding tax for residents.",
		},
	},
	{
		Name:     "banking",
		Keywords: []string{"bank", "loan", "deposit", "cbk", "interest rate", "mpesa", "m-pesa"},
		Notes: []string{
			"The Central Bank of Kenya base rate is around 12.75%.",
			"Commercial lending rates sit roughly between 14% and 20% depending on borrower and product.",
			"Fixed deposits pay about 7-11% a year; ordinary savings accounts pay far less.",
			"M-Pesa savings and credit products (M-Shwari, KCB M-Pesa) offer small loans and interest on mobile balances.",
		},
	},
	{
		Name:     "government_securities",
		Keywords: []string{"treasury", "bond", "bill", "government securities", "t-bill", "tbill"},
		Notes: []string{
			"Treasury bills: 91-day about 15%, 182-day about 15.5%, 364-day about 16%, minimum KES 100,000.",
			"Treasury bonds: 10-year about 16.5%, 20-year about 17%, with semi-annual coupons.",
			"Government securities are bought through the CBK DhowCSD platform or a bank; interest carries 15% withholding tax, infrastructure bonds are tax free.",
		},
	},
	{
		Name:     "insurance",
		Keywords: []string{"insurance", "cover", "jubilee", "nhif", "social health", "medical cover"},
		Notes: []string{
			"Leading insurers include Jubilee, Britam, CIC, ICEA Lion and APA.",
			"Public health cover runs through the Social Health Authority, which replaced NHIF; private medical cover fills its gaps.",
			"Life and education policies can combine cover with savings but usually return less than direct investing.",
		},
	},
	{
		Name:     "getting_started",
		Keywords: []string{"invest", "portfolio", "beginner", "how to", "start", "save"},
		Notes: []string{
			"Beginners: build an emergency fund of three to six months of expenses in a money market fund before taking market risk.",
			"Intermediate: mix treasury bills or bonds with a few dividend-paying NSE stocks.",
			"Advanced: spread across asset classes, rebalance yearly and watch concentration in any single counter.",
			"Never invest money needed within a year in stocks, and check that any fund or broker is CMA licensed.",
		},
	},
}

// Match returns the topics whose keywords appear in question.
func Match(question string) []Topic {
	q := strings.ToLower(question)
	var matched []Topic
	for _, t := range Topics {
		for _, kw := range t.Keywords {
			if strings.Contains(q, kw) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched
}

// Profile describes the investor asking for advice. Zero fields are left
// out of the prompt.
type Profile struct {
	RiskTolerance    string  `json:"riskTolerance"`
	InvestmentAmount float64 `json:"investmentAmount"`
	TimeHorizon      string  `json:"timeHorizon"`
}

func (p Profile) empty() bool {
	return p.RiskTolerance == "" && p.InvestmentAmount == 0 && p.TimeHorizon == ""
}

// buildPrompt wraps question with the notes of the matched topics and,
// when given, the investor profile.
func buildPrompt(question string, topics []Topic, profile *Profile) string {
	if len(topics) == 0 && (profile == nil || profile.empty()) {
		return question
	}
	var b strings.Builder
	if len(topics) > 0 {
		b.WriteString("Context from the GKash Kenya market notes:\n")
		for _, t := range topics {
			for _, n := range t.Notes {
				b.WriteString("- ")
				b.WriteString(n)
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	if profile != nil && !profile.empty() {
		b.WriteString("Investor profile:\n")
		if profile.RiskTolerance != "" {
			fmt.Fprintf(&b, "- Risk tolerance: %s\n", profile.RiskTolerance)
		}
		if profile.InvestmentAmount > 0 {
			fmt.Fprintf(&b, "- Investment amount: KES %.0f\n", profile.InvestmentAmount)
		}
		if profile.TimeHorizon != "" {
			fmt.Fprintf(&b, "- Time horizon: %s\n", profile.TimeHorizon)
		}
		b.WriteByte('\n')
	}
	b.WriteString("User question: ")
	b.WriteString(question)
	return b.String()
}
